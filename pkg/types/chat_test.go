package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem, RoleError} {
		require.True(t, r.Valid(), r)
	}
	require.False(t, Role("tool").Valid())
	require.False(t, Role("").Valid())
}

func TestHelpers(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleError, Content: "oops"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleUser, Content: "second"},
	}

	require.Equal(t, []Message{msgs[0], msgs[2], msgs[3]}, WithoutErrors(msgs))

	first, ok := FirstUser(msgs)
	require.True(t, ok)
	require.Equal(t, "first", first)

	_, ok = FirstUser(msgs[:2])
	require.False(t, ok)

	require.True(t, HasRole(msgs, RoleError))
	require.False(t, HasRole(msgs, RoleSystem))
}
