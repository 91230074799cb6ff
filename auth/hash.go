package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/secure/precis"

	"github.com/data-lunch/dlunch/storage/model"
)

// Supported hashing schemes
const (
	SchemePBKDF2SHA256 = "pbkdf2_sha256"
	SchemeArgon2id     = "argon2id"
)

const (
	pbkdf2Ident          = "$pbkdf2-sha256$"
	argon2idIdent        = "$argon2id$"
	defaultPBKDF2Rounds  = 29000
	defaultPBKDF2SaltLen = 16
	pbkdf2KeyLen         = 32
)

// HashingConf configures how new password hashes are created
type HashingConf struct {
	// Scheme is either pbkdf2_sha256 (default) or argon2id
	Scheme       string         `yaml:"scheme"`
	PBKDF2Rounds int            `yaml:"pbkdf2_rounds"`
	Argon2id     Argon2idParams `yaml:"argon2id"`
}

// Argon2idParams are the parameters for argon2id hashes
type Argon2idParams struct {
	Time        uint32 `yaml:"time"`
	MemoryKiB   uint32 `yaml:"memory_kib"`
	Parallelism uint8  `yaml:"parallelism"`
	KeyLen      uint32 `yaml:"key_len"`
	SaltLen     uint32 `yaml:"salt_len"`
}

func defaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
		SaltLen:     16,
	}
}

// withDefaults replaces every zero parameter with its default
func (p Argon2idParams) withDefaults() Argon2idParams {
	d := defaultArgon2idParams()
	if p.Time == 0 {
		p.Time = d.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = d.MemoryKiB
	}
	if p.Parallelism == 0 {
		p.Parallelism = d.Parallelism
	}
	if p.KeyLen == 0 {
		p.KeyLen = d.KeyLen
	}
	if p.SaltLen == 0 {
		p.SaltLen = d.SaltLen
	}
	return p
}

func (p Argon2idParams) validate() error {
	p = p.withDefaults()
	if p.KeyLen < 16 {
		return errors.Errorf("argon2id key_len must be at least 16, got %d", p.KeyLen)
	}
	if p.SaltLen < 8 {
		return errors.Errorf("argon2id salt_len must be at least 8, got %d", p.SaltLen)
	}
	if p.MemoryKiB < 8*uint32(p.Parallelism) {
		return errors.Errorf(
			"argon2id memory_kib must be at least %d for parallelism %d", 8*uint32(p.Parallelism), p.Parallelism,
		)
	}
	return nil
}

// Validate checks the hashing scheme and its parameters
func (c HashingConf) Validate() error {
	switch c.Scheme {
	case "", SchemePBKDF2SHA256, SchemeArgon2id:
	default:
		return errors.Errorf("unsupported password hashing scheme '%s'", c.Scheme)
	}
	if c.PBKDF2Rounds < 0 {
		return errors.Errorf("pbkdf2_rounds must not be negative, got %d", c.PBKDF2Rounds)
	}
	return c.Argon2id.validate()
}

// Hasher creates and verifies password hashes.
// Hashes created with a different scheme or different parameters than the
// configured ones still verify, but are reported as needing an update.
type Hasher struct {
	conf HashingConf
}

// NewHasher creates a new Hasher; zero values in conf are replaced with defaults
func NewHasher(conf HashingConf) *Hasher {
	if conf.Scheme == "" {
		conf.Scheme = SchemePBKDF2SHA256
	}
	if conf.PBKDF2Rounds == 0 {
		conf.PBKDF2Rounds = defaultPBKDF2Rounds
	}
	conf.Argon2id = conf.Argon2id.withDefaults()
	return &Hasher{conf: conf}
}

// Hash hashes a password with the configured scheme
func (h *Hasher) Hash(password string) (string, error) {
	normalized, err := normalizePassword(password)
	if err != nil {
		return "", err
	}
	if h.conf.Scheme == SchemeArgon2id {
		return hashArgon2id(normalized, h.conf.Argon2id)
	}
	return hashPBKDF2(normalized, h.conf.PBKDF2Rounds)
}

// Wrap wraps an already computed hash
func (h *Hasher) Wrap(hash string) (*PasswordHash, error) {
	if len(hash) > model.MaxSecretLength {
		return nil, errors.WithStack(ErrHashTooLong)
	}
	return &PasswordHash{
		hash:   hash,
		hasher: h,
	}, nil
}

// FromString hashes password and wraps the result
func (h *Hasher) FromString(password string) (*PasswordHash, error) {
	hash, err := h.Hash(password)
	if err != nil {
		return nil, err
	}
	return h.Wrap(hash)
}

func (h *Hasher) verify(hash, password string) (bool, error) {
	normalized, err := normalizePassword(password)
	if err != nil {
		return false, err
	}
	switch {
	case strings.HasPrefix(hash, pbkdf2Ident):
		return verifyPBKDF2(hash, normalized)
	case strings.HasPrefix(hash, argon2idIdent):
		return verifyArgon2id(hash, normalized)
	default:
		return false, errors.WithStack(ErrUnsupportedHash)
	}
}

func (h *Hasher) needsUpdate(hash string) bool {
	switch h.conf.Scheme {
	case SchemeArgon2id:
		stored, _, _, err := parseArgon2id(hash)
		return err != nil || stored != h.conf.Argon2id
	default:
		rounds, _, _, err := parsePBKDF2(hash)
		return err != nil || rounds != h.conf.PBKDF2Rounds
	}
}

// PasswordHash is a self-verifying one-way password hash
type PasswordHash struct {
	hash   string
	hasher *Hasher
}

// String returns the stored hash
func (p *PasswordHash) String() string {
	return p.hash
}

// Verify checks if candidate matches the hash
func (p *PasswordHash) Verify(candidate string) bool {
	ok, err := p.hasher.verify(p.hash, candidate)
	if err != nil {
		log.WithError(err).Debug("password verification failed")
		return false
	}
	return ok
}

// VerifyAndUpdate checks if candidate matches the hash. If it does and the
// hash was created with a superseded scheme or parameters, a new hash is
// also returned so the caller can persist it; otherwise the new hash is
// empty.
func (p *PasswordHash) VerifyAndUpdate(candidate string) (bool, string) {
	if !p.Verify(candidate) {
		return false, ""
	}
	if !p.hasher.needsUpdate(p.hash) {
		return true, ""
	}
	newHash, err := p.hasher.Hash(candidate)
	if err != nil {
		log.WithError(err).Error("failed to upgrade password hash")
		return true, ""
	}
	return true, newHash
}

// Equal is Verify for string candidates; it is false for everything else
func (p *PasswordHash) Equal(candidate any) bool {
	s, ok := candidate.(string)
	if !ok {
		return false
	}
	return p.Verify(s)
}

// normalizePassword applies the PRECIS OpaqueString profile (RFC 8265),
// which replaces SASLprep for passwords
func normalizePassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	normalized, err := precis.OpaqueString.String(password)
	if err != nil {
		return "", errors.Wrap(err, "invalid password")
	}
	return normalized, nil
}

// ab64 is the base64 variant used by passlib: '.' instead of '+', no padding
var ab64 = strings.NewReplacer("+", ".")

func ab64Encode(b []byte) string {
	return ab64.Replace(base64.RawStdEncoding.EncodeToString(b))
}

func ab64Decode(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(s, ".", "+"))
}

// hashPBKDF2 returns a modular crypt formatted hash compatible with passlib
// Format: $pbkdf2-sha256$<rounds>$<ab64 salt>$<ab64 checksum>
func hashPBKDF2(password string, rounds int) (string, error) {
	salt := make([]byte, defaultPBKDF2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := pbkdf2.Key([]byte(password), salt, rounds, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("%s%d$%s$%s", pbkdf2Ident, rounds, ab64Encode(salt), ab64Encode(dk)), nil
}

func verifyPBKDF2(encoded, password string) (bool, error) {
	rounds, salt, checksum, err := parsePBKDF2(encoded)
	if err != nil {
		return false, err
	}
	dk := pbkdf2.Key([]byte(password), salt, rounds, len(checksum), sha256.New)
	return subtle.ConstantTimeCompare(dk, checksum) == 1, nil
}

func parsePBKDF2(encoded string) (int, []byte, []byte, error) {
	if !strings.HasPrefix(encoded, pbkdf2Ident) {
		return 0, nil, nil, errors.WithStack(ErrUnsupportedHash)
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 {
		return 0, nil, nil, errors.New("invalid pbkdf2-sha256 hash format")
	}
	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return 0, nil, nil, errors.New("invalid pbkdf2-sha256 rounds")
	}
	salt, err := ab64Decode(parts[3])
	if err != nil {
		return 0, nil, nil, err
	}
	checksum, err := ab64Decode(parts[4])
	if err != nil {
		return 0, nil, nil, err
	}
	if len(checksum) == 0 {
		return 0, nil, nil, errors.New("invalid pbkdf2-sha256 checksum")
	}
	return rounds, salt, checksum, nil
}

// hashArgon2id returns a PHC-formatted argon2id hash string
// Format: $argon2id$v=19$m=65536,t=1,p=4$<saltB64>$<hashB64>
func hashArgon2id(password string, p Argon2idParams) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	return fmt.Sprintf(
		"%sv=19$m=%d,t=%d,p=%d$%s$%s", argon2idIdent, p.MemoryKiB, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt), base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

func verifyArgon2id(encoded, password string) (bool, error) {
	params, salt, hash, err := parseArgon2id(encoded)
	if err != nil {
		return false, err
	}
	dk := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(dk, hash) == 1, nil
}

// parseArgon2id parses a PHC-formatted argon2id hash and returns parameters, salt and hash bytes.
func parseArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	var out Argon2idParams
	if !strings.HasPrefix(encoded, argon2idIdent) {
		return out, nil, nil, errors.WithStack(ErrUnsupportedHash)
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return out, nil, nil, errors.New("invalid argon2id hash format")
	}
	if parts[2] != "v=19" {
		return out, nil, nil, errors.New("unsupported argon2 version")
	}
	for _, kv := range strings.Split(parts[3], ",") {
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return out, nil, nil, err
			}
			out.MemoryKiB = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return out, nil, nil, err
			}
			out.Time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return out, nil, nil, err
			}
			out.Parallelism = uint8(v)
		}
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return out, nil, nil, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return out, nil, nil, err
	}
	out.SaltLen = uint32(len(salt))
	out.KeyLen = uint32(len(hash))
	return out, salt, hash, nil
}
