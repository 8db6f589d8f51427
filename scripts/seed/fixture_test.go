package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFixtureIsValid(t *testing.T) {
	fx, err := DecodeFixture(bytes.NewReader(defaultFixture))
	require.NoError(t, err)
	assert.Len(t, fx.Items, 5)
	require.NotEmpty(t, fx.Prices)

	for _, p := range fx.Prices {
		in, err := p.Input()
		require.NoError(t, err)
		assert.NoError(t, in.Check(), "fixture price for %s", p.Item)
	}
}

func TestDecodeFixtureRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field": "items:\n  - code: A\n    colour: red\n",
		"unknown item":  "items:\n  - code: A\nprices:\n  - item: B\n    selling: true\n    rate: \"1\"\n",
		"bad rate":      "items:\n  - code: A\nprices:\n  - item: A\n    selling: true\n    rate: ten\n",
		"bad date":      "items:\n  - code: A\nprices:\n  - item: A\n    selling: true\n    rate: \"1\"\n    valid_from: 01/02/2025\n",
		"missing code":  "items:\n  - name: nameless\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeFixture(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestPriceFixtureInput(t *testing.T) {
	p := PriceFixture{Item: "A", Buying: true, Supplier: "SUP-1", Rate: "12.50", ValidUntil: "2025-12-31", Disabled: true}
	in, err := p.Input()
	require.NoError(t, err)
	assert.Equal(t, "12.5", in.Rate.String())
	assert.False(t, in.Enabled)
	require.NotNil(t, in.ValidUntil)
	assert.Equal(t, 2025, in.ValidUntil.Year())
	assert.Nil(t, in.ValidFrom)
}
