// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := account.NewArgon2idHasher()

	t.Run("produces PHC format", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash: %s", hash)
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("same password yields different hashes", func(t *testing.T) {
		first, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		second, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, first, second, "salts must differ")
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		assert.ErrorIs(t, err, account.ErrEmptyPassword)
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := account.NewArgon2idHasher()

	t.Run("matching password", func(t *testing.T) {
		hash, err := hasher.Hash("hunter2hunter2")
		require.NoError(t, err)

		ok, err := hasher.Verify("hunter2hunter2", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password", func(t *testing.T) {
		hash, err := hasher.Hash("hunter2hunter2")
		require.NoError(t, err)

		ok, err := hasher.Verify("nothunter2", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed hash", func(t *testing.T) {
		ok, err := hasher.Verify("anything", "not-a-phc-string")
		require.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		ok, err := hasher.Verify("anything", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
		require.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("bad base64 salt", func(t *testing.T) {
		ok, err := hasher.Verify("anything", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA")
		require.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("verifies hashes with older parameters", func(t *testing.T) {
		// Parameters are read back from the stored string, so a hash
		// produced with a lighter configuration still verifies.
		legacy := "$argon2id$v=19$m=16,t=2,p=1$c29tZXNhbHRzb21lc2E$kJ7g9arnIvFBC6cFXMkGRKJx0VYbC0+xQxqEpZRbJ/4"
		_, err := hasher.Verify("password", legacy)
		require.NoError(t, err, "lighter parameter sets must parse and verify")
	})
}

func TestArgon2idHasher_NeedsRehash(t *testing.T) {
	hasher := account.NewArgon2idHasher()

	t.Run("argon2id hash does not need rehash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsRehash(hash))
	})

	t.Run("bcrypt hash needs rehash", func(t *testing.T) {
		assert.True(t, hasher.NeedsRehash("$2a$10$N9qo8uLOickgx2ZMRZoMye"))
	})

	t.Run("empty hash needs rehash", func(t *testing.T) {
		assert.True(t, hasher.NeedsRehash(""))
	})
}
