package authz

import (
	"context"
	"testing"

	"doctor-appointment-api/internal/domain/entity"
	"doctor-appointment-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOwner(t *testing.T) {
	owner := uuid.New()
	p := &Principal{UserID: owner, RoleID: entity.RoleIDPatient}

	assert.True(t, IsOwner(p, owner))
	assert.False(t, IsOwner(p, uuid.New()))
	assert.False(t, IsOwner(nil, owner))
	assert.False(t, IsOwner(&Principal{}, uuid.Nil))
}

func TestHasRole(t *testing.T) {
	p := &Principal{UserID: uuid.New(), RoleID: entity.RoleIDDoctor}

	assert.True(t, HasRole(p, entity.RoleIDAdmin, entity.RoleIDDoctor))
	assert.False(t, HasRole(p, entity.RoleIDPatient))
	assert.False(t, HasRole(nil, entity.RoleIDDoctor))
}

func TestRequire(t *testing.T) {
	_, err := Require(context.Background(), entity.RoleIDPatient)
	assert.True(t, apperror.Is(err, apperror.Unauthenticated))

	doctor := &Principal{UserID: uuid.New(), RoleID: entity.RoleIDDoctor}
	ctx := WithPrincipal(context.Background(), doctor)

	_, err = RequirePatient(ctx)
	assert.True(t, apperror.Is(err, apperror.Forbidden))

	got, err := RequireDoctor(ctx)
	require.NoError(t, err)
	assert.Equal(t, doctor, got)

	got, err = Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, doctor, got)
}

func TestRequireOwner(t *testing.T) {
	p := &Principal{UserID: uuid.New()}

	assert.NoError(t, RequireOwner(p, p.UserID))
	assert.True(t, apperror.Is(RequireOwner(p, uuid.New()), apperror.Forbidden))
	assert.True(t, apperror.Is(RequireOwner(nil, p.UserID), apperror.Unauthenticated))
}
