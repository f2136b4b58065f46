package models

// Record ids live in the store key, not the value. Id fields are excluded
// from JSON so a serialized record never carries its own id; the read path
// reattaches it from the key.

type User struct {
	Id       string `json:"-"`
	Username string `json:"username"`
	Pass     string `json:"pass"` // hash(Salt, password)
	Salt     string `json:"salt"`
	Created  int64  `json:"created"`
}

type Session struct {
	Id      string `json:"-"`
	User    string `json:"user"`
	Created int64  `json:"created"`
}

type DescriptorType string

const (
	DescriptorLocal  DescriptorType = "local"
	DescriptorCustom DescriptorType = "custom"
	DescriptorKey    DescriptorType = "key"
)

// Descriptor says how a store/db capability is fulfilled: by this
// deployment's own service (local), by a caller-supplied pre-existing
// session (custom), or by minting a scoped session on demand from a
// registered master key (key).
type Descriptor struct {
	Type    DescriptorType `json:"type"`
	URL     string         `json:"url,omitempty"`     // custom
	Session string         `json:"session,omitempty"` // custom
	Key     string         `json:"key,omitempty"`     // key: MasterKey id
}

type App struct {
	Id         string      `json:"-"`
	Name       string      `json:"app"`
	Secret     string      `json:"secret"` // hash(Name, rawSecret)
	User       string      `json:"user"`
	Store      *Descriptor `json:"store"`
	Db         *Descriptor `json:"db"`
	FileScopes []string    `json:"fileScopes,omitempty"`
	DbScopes   []string    `json:"dbScopes,omitempty"`
}

type AppHandshake struct {
	Id         string   `json:"-"`
	AppName    string   `json:"app"`
	Redirect   string   `json:"redirect"`
	Scopes     string   `json:"scopes"` // comma list, normalized at start
	FileScopes []string `json:"fileScopes,omitempty"`
	DbScopes   []string `json:"dbScopes,omitempty"`
	Created    int64    `json:"created"`

	// Set once, on approval.
	User  string      `json:"user,omitempty"`
	Code  string      `json:"code,omitempty"`
	Store *Descriptor `json:"store,omitempty"`
	Db    *Descriptor `json:"db,omitempty"`
}

func (hs AppHandshake) Approved() bool {
	return hs.Code != ""
}

type AppSession struct {
	Id         string   `json:"-"`
	App        string   `json:"app"`
	User       string   `json:"user"`
	Created    int64    `json:"created"`
	FileScopes []string `json:"fileScopes,omitempty"`
	DbScopes   []string `json:"dbScopes,omitempty"`
}

type MasterKeyType string

const (
	MasterKeyFile MasterKeyType = "file"
	MasterKeyDb   MasterKeyType = "db"
)

// MasterKey is a user-held long-lived credential for a remote storage or
// database authority. The raw key never leaves the server; it is only used
// to mint narrowly-scoped remote sessions.
type MasterKey struct {
	Id   string        `json:"-"`
	User string        `json:"user"`
	Type MasterKeyType `json:"type"`
	Name string        `json:"name,omitempty"`
	URL  string        `json:"url"`
	Key  string        `json:"key"`
}
