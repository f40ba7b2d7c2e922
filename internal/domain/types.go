package domain

import "github.com/google/uuid"

type UserID = uuid.UUID
type RoleID = uuid.UUID
type TokenID = uuid.UUID
type CredentialID = uuid.UUID
