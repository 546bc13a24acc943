package pairing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddleEllipsized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", want: "0x5aAe…eAed"},
		{in: "12345678", want: "12345678"},
		{in: "123456789", want: "1234…6789"},
		{in: "0x1234", want: "0x1234"},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, middleEllipsized(tc.in, 4), tc.in)
	}
}

func TestAccountFromSession(t *testing.T) {
	t.Parallel()

	acc := accountFromSession(SessionSnapshot{
		ApprovedAccounts: []string{" 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed ", addrB},
		PeerName:         "Dex",
	})
	require.NotNil(t, acc)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", acc.Address.Hex())
	require.Equal(t, "0x5aAe…eAed", acc.DisplayAddress)
	require.Equal(t, "Dex", acc.DisplayName)

	require.Nil(t, accountFromSession(SessionSnapshot{}))
	require.Nil(t, accountFromSession(SessionSnapshot{ApprovedAccounts: []string{}}))
	require.Nil(t, accountFromSession(SessionSnapshot{ApprovedAccounts: []string{"0x123"}}))
}

func TestStateEqual(t *testing.T) {
	t.Parallel()

	a := accountFromSession(approved(addrA))
	b := accountFromSession(approved(addrA))

	s1 := State{SessionActive: true, ConnectedAccount: a, Assets: []Asset{{Contract: "C"}}}
	s2 := State{SessionActive: true, ConnectedAccount: b, Assets: []Asset{{Contract: "C"}}}
	require.True(t, s1.Equal(s2))

	s2.ViewAction = OpenURI("wc:x")
	require.False(t, s1.Equal(s2))

	require.True(t, State{}.Equal(State{Assets: []Asset{}}))
}
