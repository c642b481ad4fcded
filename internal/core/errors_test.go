package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"validation", Validation("a", "b"), KindValidation},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("Account")), KindNotFound},
		{"op conflict", Op("create account", Conflict("Account with this name already exists.", nil)), KindConflict},
		{"plain", errors.New("disk full"), KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestOpMessage(t *testing.T) {
	err := Op("create transaction", Validation("Amount must be greater than 0", "Invalid transaction type"))
	assert.EqualError(t, err, "Failed to create transaction: Amount must be greater than 0; Invalid transaction type")
	assert.Equal(t, []string{"Amount must be greater than 0", "Invalid transaction type"}, MessagesOf(err))
	assert.NoError(t, Op("noop", nil))
}

func TestNotFoundMessage(t *testing.T) {
	assert.EqualError(t, NotFound("Transaction"), "Transaction not found")
	assert.True(t, IsNotFound(NotFoundf("No default account found. Please specify an account.")))
}
