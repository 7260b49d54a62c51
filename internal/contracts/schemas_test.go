package contracts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentals-service/internal/core/domain"
)

func TestGenerateKeyFromPath(t *testing.T) {
	assert.Equal(t, "ListingCreatedEvent/1.0.0", generateKeyFromPath("schemas/events/listing-created/v1.json"))
	assert.Equal(t, "CreateListingRequest/2.0.0", generateKeyFromPath("schemas/requests/create-listing/v2.json"))
	assert.Empty(t, generateKeyFromPath("schemas/other/x/v1.json"))
	assert.Empty(t, generateKeyFromPath("schemas/events/v1.json"))
}

func TestAllSchemasCompiled(t *testing.T) {
	for _, key := range []string{
		CreateListingRequestV1, RegisterUserRequestV1, LoginUserRequestV1, UpdateProfileRequestV1, AddFavoriteRequestV1,
		ListingCreatedEventV1, ListingDeletedEventV1, UserRegisteredEventV1, UserDeletedEventV1,
	} {
		assert.Contains(t, compiledSchemas, key)
	}
}

func TestValidateCreateListing(t *testing.T) {
	valid := `{"flatName":"Loft","city":"Cali","street":"Calle 5","streetNumber":"10","area":40,
		"airConditioning":"Si","yearBuilt":2001,"dateAvailable":"2030-01-01T00:00:00Z","rentPrice":500,
		"imgUpload":["https://img.example.com/a.jpg"]}`
	require.NoError(t, Validate(CreateListingRequestV1, []byte(valid)))

	invalid := `{"flatName":"Loft","area":-1,"airConditioning":"maybe","unexpected":true}`
	err := Validate(CreateListingRequestV1, []byte(invalid))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Problems)

	err = Validate(CreateListingRequestV1, []byte("{not json"))
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"body is not valid JSON"}, verr.Problems)
}

func TestValidateUnknownSchema(t *testing.T) {
	err := Validate("Nope/1.0.0", []byte(`{}`))
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidateValueEvent(t *testing.T) {
	assert.NoError(t, ValidateValue(UserDeletedEventV1, map[string]string{
		"userId": "u-1", "deletedBy": "admin-1", "deletedAt": "2025-03-10T12:00:00Z",
	}))
	assert.Error(t, ValidateValue(UserDeletedEventV1, map[string]string{"userId": "u-1"}))
}
