package apprepo

import "time"

// App types accepted by the registry.
const (
	TypeExtractor      = "extractor"
	TypeWriter         = "writer"
	TypeApplication    = "application"
	TypeOther          = "other"
	TypeTransformation = "transformation"
	TypeProcessor      = "processor"
)

// Attributes are the mutable columns shared by apps and app_versions.
// Json tag is used for caching.
type Attributes struct {
	Name string `json:"name" db:"name"`
	Type string `json:"type" db:"type"`

	RepoType    string     `json:"repoType" db:"repo_type"`
	RepoURI     string     `json:"repoUri" db:"repo_uri"`
	RepoTag     string     `json:"repoTag" db:"repo_tag"`
	RepoOptions JSONObject `json:"repoOptions" db:"repo_options"`

	ShortDescription string `json:"shortDescription" db:"short_description"`
	LongDescription  string `json:"longDescription" db:"long_description"`
	LicenseURL       string `json:"licenseUrl" db:"license_url"`
	DocumentationURL string `json:"documentationUrl" db:"documentation_url"`

	RequiredMemory      string      `json:"requiredMemory" db:"required_memory"`
	ProcessTimeout      int64       `json:"processTimeout" db:"process_timeout"`
	Encryption          bool        `json:"encryption" db:"encryption"`
	DefaultBucket       bool        `json:"defaultBucket" db:"default_bucket"`
	DefaultBucketStage  string      `json:"defaultBucketStage" db:"default_bucket_stage"`
	ForwardToken        bool        `json:"forwardToken" db:"forward_token"`
	ForwardTokenDetails bool        `json:"forwardTokenDetails" db:"forward_token_details"`
	InjectEnvironment   bool        `json:"injectEnvironment" db:"inject_environment"`
	LoggerType          string      `json:"loggerType" db:"logger_type"`
	LoggerConfiguration JSONObject  `json:"loggerConfiguration" db:"logger_configuration"`
	UIOptions           StringList  `json:"uiOptions" db:"ui_options"`
	ConfigurationSchema JSONObject  `json:"configurationSchema" db:"configuration_schema"`
	TestConfiguration   JSONObject  `json:"testConfiguration" db:"test_configuration"`
	EmptyConfiguration  JSONObject  `json:"emptyConfiguration" db:"empty_configuration"`
	Permissions         Permissions `json:"permissions" db:"permissions"`

	Icon32 *string `json:"icon32" db:"icon32"`
	Icon64 *string `json:"icon64" db:"icon64"`

	IsPublic       bool       `json:"isPublic" db:"is_public"`
	IsDeprecated   bool       `json:"isDeprecated" db:"is_deprecated"`
	ExpiredOn      *time.Time `json:"expiredOn" db:"expired_on"`
	ReplacementApp *string    `json:"replacementApp" db:"replacement_app"`
}

// App is the current state row of apps table.
type App struct {
	ID      string `json:"id" db:"id"`
	Vendor  string `json:"vendor" db:"vendor"`
	Version int64  `json:"version" db:"version"`

	Attributes

	IsApproved bool       `json:"isApproved" db:"is_approved"`
	DeletedOn  *time.Time `json:"deletedOn" db:"deleted_on"`
	CreatedOn  time.Time  `json:"createdOn" db:"created_on"`
	CreatedBy  string     `json:"createdBy" db:"created_by"`
}

// AppVersion is an immutable snapshot in app_versions, keyed by (ID, Version).
type AppVersion struct {
	ID      string `json:"id" db:"id"`
	Version int64  `json:"version" db:"version"`

	Attributes

	CreatedOn time.Time `json:"createdOn" db:"created_on"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
}

// Deleted report whether the app is soft deleted.
func (a App) Deleted() bool {
	return a.DeletedOn != nil
}

// IconKeys return the deterministic object names of the icons written at version.
func IconKeys(appID string, version int64) (icon32, icon64 string) {
	return iconKey(appID, 32, version), iconKey(appID, 64, version)
}
