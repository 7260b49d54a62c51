package contracts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"rentals-service/internal/core/domain"
)

//go:embed schemas
var schemasFS embed.FS

// Ключи схем: "<Имя><Request|Event>/<версия>".
const (
	CreateListingRequestV1 = "CreateListingRequest/1.0.0"
	RegisterUserRequestV1  = "RegisterUserRequest/1.0.0"
	LoginUserRequestV1     = "LoginUserRequest/1.0.0"
	UpdateProfileRequestV1 = "UpdateProfileRequest/1.0.0"
	AddFavoriteRequestV1   = "AddFavoriteRequest/1.0.0"

	ListingCreatedEventV1 = "ListingCreatedEvent/1.0.0"
	ListingDeletedEventV1 = "ListingDeletedEvent/1.0.0"
	UserRegisteredEventV1 = "UserRegisteredEvent/1.0.0"
	UserDeletedEventV1    = "UserDeletedEvent/1.0.0"
)

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	var paths []string
	err := fs.WalkDir(schemasFS, "schemas", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		file, err := schemasFS.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := compiler.AddResource(path, file); err != nil {
			return fmt.Errorf("failed to add schema resource %s: %w", path, err)
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		log.Fatalf("error walking and adding schema resources: %v", err)
	}

	for _, path := range paths {
		schema, err := compiler.Compile(path)
		if err != nil {
			log.Fatalf("could not compile schema %s: %v", path, err)
		}
		key := generateKeyFromPath(path)
		if key == "" {
			log.Fatalf("schema path %s does not follow <kind>/<name>/v<N>.json", path)
		}
		compiledSchemas[key] = schema
	}
}

// generateKeyFromPath: "schemas/events/listing-created/v1.json" -> "ListingCreatedEvent/1.0.0".
func generateKeyFromPath(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(path, "schemas/"), ".json")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "v") {
		return ""
	}

	var suffix string
	switch parts[0] {
	case "events":
		suffix = "Event"
	case "requests":
		suffix = "Request"
	default:
		return ""
	}

	caser := cases.Title(language.English)
	var name strings.Builder
	for _, p := range strings.Split(parts[1], "-") {
		name.WriteString(caser.String(p))
	}
	name.WriteString(suffix)

	return fmt.Sprintf("%s/%s.0.0", name.String(), strings.TrimPrefix(parts[2], "v"))
}

// Validate проверяет JSON-тело по схеме key. Нарушения схемы возвращаются
// как *domain.ValidationError, чтобы транспорт ответил 400 со списком проблем.
func Validate(key string, body []byte) error {
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema %q not found", key)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return &domain.ValidationError{Problems: []string{"body is not valid JSON"}}
	}

	if err := schema.Validate(v); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &domain.ValidationError{Problems: leafMessages(verr)}
		}
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}

// ValidateValue сериализует значение и проверяет его по схеме. Нужен для исходящих событий.
func ValidateValue(key string, value interface{}) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	return Validate(key, body)
}

func leafMessages(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		location := verr.InstanceLocation
		if location == "" {
			location = "/"
		}
		return []string{fmt.Sprintf("%s: %s", location, verr.Message)}
	}
	var out []string
	for _, c := range verr.Causes {
		out = append(out, leafMessages(c)...)
	}
	return out
}
