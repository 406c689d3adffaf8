package txn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type counter struct {
	value    int
	restored []string
	name     string
	log      *[]string
}

func (c *counter) Snapshot() (restore func()) {
	saved := c.value
	return func() {
		c.value = saved
		*c.log = append(*c.log, c.name)
	}
}

func TestRunCommitsOnSuccess(t *testing.T) {
	var order []string
	a := &counter{value: 1, name: "a", log: &order}

	err := Run(func() error {
		a.value = 42
		return nil
	}, a)

	require.NoError(t, err)
	require.Equal(t, 42, a.value)
	require.Empty(t, order)
}

func TestRunRestoresInReverseOrder(t *testing.T) {
	var order []string
	a := &counter{value: 1, name: "a", log: &order}
	b := &counter{value: 2, name: "b", log: &order}

	boom := errors.New("boom")
	err := Run(func() error {
		a.value = 10
		b.value = 20
		return boom
	}, a, b)

	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, a.value)
	require.Equal(t, 2, b.value)
	require.Equal(t, []string{"b", "a"}, order)
}
