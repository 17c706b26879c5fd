package common

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"

	"github.com/bwmarrin/snowflake"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/pbkdf2"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	nodeOnce sync.Once
	idNode   *snowflake.Node
)

// UUIDint64 returns a snowflake id for new entities.
func UUIDint64() int64 {
	nodeOnce.Do(func() {
		var err error
		idNode, err = snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
	})
	return idNode.Generate().Int64()
}

// GetSecretSalt returns the process-wide password salt. It can be
// overridden with MILKRUN_SECRET for deployments that share a database.
func GetSecretSalt() string {
	if s := os.Getenv("MILKRUN_SECRET"); s != "" {
		return s
	}
	return "milkrun-default-salt"
}

// Sha256HashWithSalt derives a hex-encoded password hash.
func Sha256HashWithSalt(src string, salt string) string {
	dk := pbkdf2.Key([]byte(src), []byte(salt), 4096, 32, sha256.New)
	return hex.EncodeToString(dk)
}

// RandomHex returns n random bytes hex encoded, for webhook secrets
// and payment link tokens.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ToJSON marshals v for logs and settings storage, empty string on error.
func ToJSON(v interface{}) string {
	bs, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(bs)
}

// FromJSON unmarshals settings/config payloads.
func FromJSON(data string, v interface{}) error {
	return json.Unmarshal([]byte(data), v)
}
