package port

import "time"

// Clock нужен use cases, которые проверяют даты относительно "сейчас".
type Clock func() time.Time
