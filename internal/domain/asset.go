package domain

type AssetMetadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
	Format string `json:"format"`
}

// SizeKB returns the byte size in whole kilobytes, rounded up.
func (m AssetMetadata) SizeKB() int {
	return int((m.Size + KilobyteSize - 1) / KilobyteSize)
}

type Asset struct {
	Filename    string
	ContentType string
	Data        []byte
	Meta        AssetMetadata
}

// DefaultParameters derives the initial parameters for a freshly selected asset.
func (a *Asset) DefaultParameters() Parameters {
	return Parameters{
		Width:               a.Meta.Width,
		Height:              a.Meta.Height,
		MaintainAspectRatio: DefaultKeepAspect,
		Quality:             DefaultQuality,
		MaxSizeKB:           a.Meta.SizeKB(),
	}
}

// ObjectScheme marks artifact references that name a storage object rather
// than a fetchable URL.
const ObjectScheme = "s3"

func ObjectRef(name string) string {
	return ObjectScheme + ":" + name
}

// ParseObjectRef returns the object name of a reference built by ObjectRef.
func ParseObjectRef(ref string) (string, bool) {
	prefix := ObjectScheme + ":"
	if len(ref) <= len(prefix) || ref[:len(prefix)] != prefix {
		return "", false
	}
	return ref[len(prefix):], true
}
