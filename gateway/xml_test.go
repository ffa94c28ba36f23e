package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currenciesXML = `<?xml version="1.0" encoding="utf-8"?>
<CurrenciesList xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns="http://merchant.roboxchange.com/WebService/">
  <Result>
    <Code>0</Code>
    <Description />
  </Result>
  <Groups>
    <Group Code="BankCard" Description="Bank card">
      <Items>
        <Currency Label="BankCardPSR" Alias="BankCard" Name="Bank card" MaxValue="300000" />
      </Items>
    </Group>
    <Group Code="SBP" Description="SBP">
      <Items>
        <Currency Label="SBPPSR" Alias="SBP" Name="SBP" MinValue="1" MaxValue="1000000" />
        <Currency Label="SBPQR" Alias="SBPQR" Name="SBP QR" />
      </Items>
    </Group>
  </Groups>
</CurrenciesList>`

func TestParseXML(t *testing.T) {
	t.Run("CurrenciesDocument", func(t *testing.T) {
		body, err := ParseXML(strings.NewReader(currenciesXML))
		require.NoError(t, err)

		result := body["Result"].(map[string]any)
		assert.Equal(t, "0", result["Code"])
		assert.Nil(t, result["Description"])

		groups := body["Groups"].(map[string]any)["Group"].([]any)
		require.Len(t, groups, 2)

		card := groups[0].(map[string]any)
		assert.Equal(t, "BankCard", card["Code"])
		assert.Equal(t, "Bank card", card["Description"])
		cardCurrency := card["Items"].(map[string]any)["Currency"].(map[string]any)
		assert.Equal(t, "BankCardPSR", cardCurrency["Label"])

		sbp := groups[1].(map[string]any)
		sbpItems := sbp["Items"].(map[string]any)["Currency"].([]any)
		require.Len(t, sbpItems, 2)
		assert.Equal(t, "SBPQR", sbpItems[1].(map[string]any)["Label"])
	})

	t.Run("NamespacesStripped", func(t *testing.T) {
		body, err := ParseXML(strings.NewReader(`<a:Root xmlns:a="urn:x"><a:Child>v</a:Child></a:Root>`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"Child": "v"}, body)
	})

	t.Run("TextWithAttributes", func(t *testing.T) {
		body, err := ParseXML(strings.NewReader(`<Root><Amount currency="RUB"> 10.5 </Amount></Root>`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"Amount": map[string]any{"currency": "RUB", TextKey: "10.5"}}, body)
	})

	t.Run("LeafTextTrimmed", func(t *testing.T) {
		body, err := ParseXML(strings.NewReader("<Root><State>\n  5  \n</State><Empty></Empty></Root>"))
		require.NoError(t, err)
		assert.Equal(t, "5", body["State"])
		assert.Nil(t, body["Empty"])
		_, ok := body["Empty"]
		assert.True(t, ok)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := ParseXML(strings.NewReader(""))
		assert.Error(t, err)

		_, err = ParseXML(strings.NewReader("<a></b>"))
		assert.Error(t, err)
	})
}
