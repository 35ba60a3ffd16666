package detector

import (
	"strings"
	"testing"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/pkg/solana_client"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wallet     = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	otherOwner = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	usdcMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	bonkMint   = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	jupiterV6  = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	raydiumV4  = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	systemProg = "11111111111111111111111111111111"
	voteProg   = "Vote111111111111111111111111111111111111111"
)

var jsonAPI = sonic.Config{UseNumber: true}.Froze()

func parse(t *testing.T, doc string) model.RawTransaction {
	t.Helper()
	var tx model.RawTransaction
	require.NoError(t, jsonAPI.UnmarshalFromString(doc, &tx))
	return tx
}

func TestIsSwapNoFalsePositives(t *testing.T) {
	d := New(nil)
	docs := []string{
		`{"signature":"s1","instructions":[{"programId":"` + systemProg + `"}]}`,
		`{"signature":"s2","instructions":[{"programId":"` + voteProg + `","innerInstructions":[{"programId":"` + systemProg + `"}]}]}`,
		`{"signature":"s3","programIds":["` + systemProg + `"]}`,
		`{"signature":"s4"}`,
		`{"signature":"s5","instructions":"garbage","logs":[1,2,3]}`,
	}
	for _, doc := range docs {
		assert.False(t, d.IsSwap(parse(t, doc), wallet), doc)
	}
	assert.False(t, d.IsSwap(nil, wallet))
}

func TestIsSwapProgramLocations(t *testing.T) {
	d := New(nil)
	docs := map[string]string{
		"instruction": `{"instructions":[{"programId":"` + jupiterV6 + `"}]}`,
		"inner":       `{"instructions":[{"programId":"` + systemProg + `","innerInstructions":[{"programId":"` + raydiumV4 + `"}]}]}`,
		"logs":        `{"logs":[{"programId":"` + jupiterV6 + `"}]}`,
		"programIds":  `{"programIds":["` + systemProg + `","` + raydiumV4 + `"]}`,
	}
	for name, doc := range docs {
		assert.True(t, d.IsSwap(parse(t, doc), wallet), name)
	}
}

func TestIsSwapFailedOrForeignPayer(t *testing.T) {
	d := New(nil)
	failed := parse(t, `{"transactionError":{"InstructionError":[0,"Custom"]},"instructions":[{"programId":"`+jupiterV6+`"}]}`)
	assert.False(t, d.IsSwap(failed, wallet))

	okNullErr := parse(t, `{"transactionError":null,"feePayer":"`+wallet+`","instructions":[{"programId":"`+jupiterV6+`"}]}`)
	assert.True(t, d.IsSwap(okNullErr, wallet))

	foreign := parse(t, `{"feePayer":"`+otherOwner+`","instructions":[{"programId":"`+jupiterV6+`"}]}`)
	assert.False(t, d.IsSwap(foreign, wallet))
}

func TestIsSwapCustomAllowList(t *testing.T) {
	d := New([]string{" " + raydiumV4 + " "})
	assert.False(t, d.IsSwap(parse(t, `{"programIds":["`+jupiterV6+`"]}`), wallet))
	assert.True(t, d.IsSwap(parse(t, `{"programIds":["`+raydiumV4+`"]}`), wallet))
}

func TestExtractFlat(t *testing.T) {
	tx := parse(t, `{"signature":"sigFlat","timestamp":1700000000,"inputMint":"`+usdcMint+`","outputMint":"`+bonkMint+`","amount":"12.5","inputDecimals":6}`)
	c, ok := Extract(tx, wallet)
	require.True(t, ok)
	assert.Equal(t, wallet, c.SourceWallet)
	assert.Equal(t, "sigFlat", c.SourceTxID)
	assert.Equal(t, usdcMint, c.InputMint)
	assert.Equal(t, bonkMint, c.OutputMint)
	assert.Equal(t, "12.5", c.Amount.String())
	require.NotNil(t, c.InputDecimals)
	assert.Equal(t, uint8(6), *c.InputDecimals)
	assert.Equal(t, int64(1700000000), c.ObservedAt.Unix())
}

func TestExtractNativeInputTokenOutput(t *testing.T) {
	tx := parse(t, `{
		"signature":"sigEvt",
		"events":{"swap":{
			"nativeInput":{"account":"`+wallet+`","amount":"2500000000"},
			"nativeOutput":null,
			"tokenInputs":[],
			"tokenOutputs":[{"userAccount":"`+wallet+`","mint":"`+usdcMint+`","rawTokenAmount":{"tokenAmount":"375000000","decimals":6}}]
		}}
	}`)
	c, ok := Extract(tx, wallet)
	require.True(t, ok)
	assert.Equal(t, solana_client.WSOLMint, c.InputMint)
	assert.Equal(t, usdcMint, c.OutputMint)
	assert.Equal(t, "2.5", c.Amount.String())
	require.NotNil(t, c.InputDecimals)
	assert.Equal(t, uint8(9), *c.InputDecimals)
}

func TestExtractTokenInputNativeOutput(t *testing.T) {
	tx := parse(t, `{
		"signature":"sigEvt2",
		"events":{"swap":{
			"nativeOutput":{"account":"`+wallet+`","amount":"1000000000"},
			"tokenInputs":[
				{"userAccount":"`+otherOwner+`","mint":"`+bonkMint+`","rawTokenAmount":{"tokenAmount":"1","decimals":5}},
				{"userAccount":"`+wallet+`","mint":"`+usdcMint+`","rawTokenAmount":{"tokenAmount":1500000,"decimals":6}}
			]
		}}
	}`)
	c, ok := Extract(tx, wallet)
	require.True(t, ok)
	assert.Equal(t, usdcMint, c.InputMint)
	assert.Equal(t, solana_client.WSOLMint, c.OutputMint)
	assert.Equal(t, "1.5", c.Amount.String())
}

func TestExtractRejectsMalformed(t *testing.T) {
	docs := map[string]string{
		"missing output":   `{"inputMint":"` + usdcMint + `","amount":"1"}`,
		"missing amount":   `{"inputMint":"` + usdcMint + `","outputMint":"` + bonkMint + `"}`,
		"bad amount":       `{"inputMint":"` + usdcMint + `","outputMint":"` + bonkMint + `","amount":"abc"}`,
		"zero amount":      `{"inputMint":"` + usdcMint + `","outputMint":"` + bonkMint + `","amount":"0"}`,
		"negative amount":  `{"inputMint":"` + usdcMint + `","outputMint":"` + bonkMint + `","amount":-3}`,
		"identical mints":  `{"inputMint":"` + usdcMint + `","outputMint":"` + usdcMint + `","amount":"1"}`,
		"invalid mint":     `{"inputMint":"0xdeadbeef","outputMint":"` + bonkMint + `","amount":"1"}`,
		"empty swap event": `{"events":{"swap":{}}}`,
		"event no output":  `{"events":{"swap":{"nativeInput":{"amount":"100"}}}}`,
		"event bad raw":    `{"events":{"swap":{"nativeInput":{"amount":"100"},"tokenOutputs":[{"mint":"` + usdcMint + `"}]}}}`,
		"no fields":        `{"signature":"x"}`,
	}
	for name, doc := range docs {
		_, ok := Extract(parse(t, doc), wallet)
		assert.False(t, ok, name)
	}
	_, ok := Extract(nil, wallet)
	assert.False(t, ok)
}

func TestDetect(t *testing.T) {
	d := New(nil)
	swap := `{"signature":"sigD","feePayer":"` + wallet + `","instructions":[{"programId":"` + jupiterV6 + `"}],"inputMint":"` + usdcMint + `","outputMint":"` + bonkMint + `","amount":"5"}`
	c, ok := d.Detect(parse(t, swap), wallet)
	require.True(t, ok)
	assert.Equal(t, "5", c.Amount.String())

	// 白名单程序但无法提取参数
	noParams := `{"signature":"sigE","instructions":[{"programId":"` + jupiterV6 + `"}]}`
	_, ok = d.Detect(parse(t, noParams), wallet)
	assert.False(t, ok)

	// 有参数但不涉及 DEX 程序
	transfer := strings.Replace(swap, jupiterV6, systemProg, 1)
	_, ok = d.Detect(parse(t, transfer), wallet)
	assert.False(t, ok)
}
