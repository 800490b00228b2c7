package faultline

// HashAlgo names a digest used for fingerprints.
type HashAlgo string

const (
	// HashSHA256 uses SHA-256.
	HashSHA256 HashAlgo = "sha256"

	// HashSHA512 uses SHA-512.
	HashSHA512 HashAlgo = "sha512"

	// HashBLAKE2b uses BLAKE2b-256.
	HashBLAKE2b HashAlgo = "blake2b"
)

// MaskType names a masking rule for values leaving through Send.
type MaskType string

const (
	MaskEmail  MaskType = "email"  // alice@example.com -> a***@example.com
	MaskIP     MaskType = "ip"     // 192.168.1.100 -> 192.168.xxx.xxx
	MaskCard   MaskType = "card"   // 4111111111111111 -> ************1111
	MaskUUID   MaskType = "uuid"   // 550e8400-e29b-41d4-a716-446655440000 -> 550e8400-****-****-****-************
	MaskPhone  MaskType = "phone"  // (555) 123-4567 -> (***) ***-4567
	MaskSecret MaskType = "secret" // hunter2 -> *******
)

var validHashAlgos = map[HashAlgo]bool{
	HashSHA256:  true,
	HashSHA512:  true,
	HashBLAKE2b: true,
}

var validMaskTypes = map[MaskType]bool{
	MaskEmail:  true,
	MaskIP:     true,
	MaskCard:   true,
	MaskUUID:   true,
	MaskPhone:  true,
	MaskSecret: true,
}

// IsValidHashAlgo returns true if the algorithm is a known hash algorithm.
func IsValidHashAlgo(algo HashAlgo) bool {
	return validHashAlgos[algo]
}

// IsValidMaskType returns true if the type is a known mask type.
func IsValidMaskType(mt MaskType) bool {
	return validMaskTypes[mt]
}
