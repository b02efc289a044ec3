package processor

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "card-gateway/internal/domain/processor"
)

// newTestCodec テスト用の鍵ペアとCodecを生成する
func newTestCodec(t *testing.T) (*Codec, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	codec, err := NewCodec(string(pubPEM))
	require.NoError(t, err)

	return codec, key
}

// decodeBlob ワイヤ形式の文字列を復号して元のシリアライズ済みペイロードへ戻す
func decodeBlob(t *testing.T, key *rsa.PrivateKey, blob string) []byte {
	t.Helper()

	var plain []byte
	for _, chunk := range strings.Split(blob, "<FS>") {
		cipher, err := base64.StdEncoding.DecodeString(chunk)
		require.NoError(t, err)
		decrypted, err := rsa.DecryptPKCS1v15(rand.Reader, key, cipher)
		require.NoError(t, err)
		plain = append(plain, decrypted...)
	}
	return plain
}

func TestCodec_Encode(t *testing.T) {
	codec, key := newTestCodec(t)

	tests := []struct {
		name    string
		payload interface{}
	}{
		{
			name:    "正常系: 1チャンクに収まるペイロード",
			payload: map[string]string{"transaction_reference": "ref-001"},
		},
		{
			name: "正常系: 複数チャンクへ分割されるペイロード",
			payload: map[string]string{
				"transaction_reference": strings.Repeat("a", 150),
				"merchant_identifier":   strings.Repeat("b", 150),
				"transaction_token":     strings.Repeat("c", 150),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := codec.Encode(tt.payload)
			require.NoError(t, err)

			want, err := json.Marshal(tt.payload)
			require.NoError(t, err)

			assert.Equal(t, want, decodeBlob(t, key, blob))
		})
	}
}

func TestCodec_EncodeBytes(t *testing.T) {
	codec, key := newTestCodec(t)

	tests := []struct {
		name       string
		size       int
		wantChunks int
	}{
		{name: "正常系: 1バイト", size: 1, wantChunks: 1},
		{name: "正常系: チャンク境界ちょうど", size: 117, wantChunks: 1},
		{name: "正常系: チャンク境界+1バイト", size: 118, wantChunks: 2},
		{name: "正常系: 複数チャンク境界をまたぐ", size: 117*3 + 50, wantChunks: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(strings.Repeat("x", tt.size))

			blob, err := codec.EncodeBytes(payload)
			require.NoError(t, err)

			assert.Len(t, strings.Split(blob, "<FS>"), tt.wantChunks)
			assert.Equal(t, payload, decodeBlob(t, key, blob))
		})
	}

	t.Run("異常系: 空ペイロード", func(t *testing.T) {
		_, err := codec.EncodeBytes(nil)
		assert.ErrorIs(t, err, domain.ErrEmptyPayload)
	})
}

func TestNewCodec(t *testing.T) {
	tests := []struct {
		name      string
		pem       string
		wantError bool
	}{
		{
			name:      "異常系: PEMでない入力",
			pem:       "not a pem",
			wantError: true,
		},
		{
			name:      "異常系: 空文字列",
			pem:       "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCodec(tt.pem)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
