package processor

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	domain "card-gateway/internal/domain/processor"
)

// chunkSize RSA-PKCS1v15の平文チャンクサイズ（ワイヤ契約の固定値）
const chunkSize = 117

// chunkSeparator 暗号チャンク間の区切りトークン（ワイヤ契約のリテラル）
const chunkSeparator = "<FS>"

var errInvalidPublicKey = errors.New("invalid processor public key")

// Codec プロセッサー向けのワイヤコーデック
// ペイロードをJSON化し、117バイトごとにRSA暗号化・base64化して<FS>で連結する
type Codec struct {
	publicKey *rsa.PublicKey
}

// NewCodec PEM形式の公開鍵から新しいCodecを作成
func NewCodec(publicKeyPEM string) (*Codec, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errInvalidPublicKey
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse processor public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errInvalidPublicKey
	}

	return &Codec{publicKey: rsaPub}, nil
}

// Encode ペイロードをJSON化・暗号化してワイヤ形式の文字列を返す
func (c *Codec) Encode(payload interface{}) (string, error) {
	serialized, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}
	return c.EncodeBytes(serialized)
}

// EncodeBytes シリアライズ済みのペイロードを暗号化してワイヤ形式の文字列を返す
func (c *Codec) EncodeBytes(serialized []byte) (string, error) {
	chunks := splitChunks(serialized, chunkSize)
	if len(chunks) == 0 {
		return "", domain.ErrEmptyPayload
	}

	encoded := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		cipher, err := rsa.EncryptPKCS1v15(rand.Reader, c.publicKey, chunk)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt chunk: %w", err)
		}
		encoded = append(encoded, base64.StdEncoding.EncodeToString(cipher))
	}

	return strings.Join(encoded, chunkSeparator), nil
}

// splitChunks データを最大sizeバイトのチャンク列に分割する
func splitChunks(data []byte, size int) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := size
		if len(data) < n {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}
