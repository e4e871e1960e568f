package apprepo

import (
	"strings"
	"time"
)

// RepositoryPayload describes where the app image lives.
type RepositoryPayload struct {
	Type    *string     `json:"type" validate:"omitempty,oneof=dockerhub quay ecr builder"`
	URI     *string     `json:"uri" validate:"omitempty,max=256"`
	Tag     *string     `json:"tag" validate:"omitempty,max=64"`
	Options *JSONObject `json:"options"`
}

// Payload is the allow-list of attributes a caller may write.
// Any other key in a request body (isApproved, vendor, version, id, createdBy...) has no field here
// and is never decoded. A nil field means "not present".
type Payload struct {
	Name       *string            `json:"name" validate:"omitempty,min=1,max=128"`
	Type       *string            `json:"type" validate:"omitempty,oneof=extractor writer application other transformation processor"`
	Repository *RepositoryPayload `json:"repository"`

	ShortDescription *string `json:"shortDescription" validate:"omitempty,max=512"`
	LongDescription  *string `json:"longDescription"`
	LicenseURL       *string `json:"licenseUrl" validate:"omitempty,url"`
	DocumentationURL *string `json:"documentationUrl" validate:"omitempty,url"`

	RequiredMemory      *string      `json:"requiredMemory" validate:"omitempty,max=16"`
	ProcessTimeout      *int64       `json:"processTimeout" validate:"omitempty,min=0"`
	Encryption          *bool        `json:"encryption"`
	DefaultBucket       *bool        `json:"defaultBucket"`
	DefaultBucketStage  *string      `json:"defaultBucketStage" validate:"omitempty,oneof=in out"`
	ForwardToken        *bool        `json:"forwardToken"`
	ForwardTokenDetails *bool        `json:"forwardTokenDetails"`
	InjectEnvironment   *bool        `json:"injectEnvironment"`
	LoggerType          *string      `json:"loggerType" validate:"omitempty,oneof=standard gelf"`
	LoggerConfiguration *JSONObject  `json:"loggerConfiguration"`
	UIOptions           *StringList  `json:"uiOptions"`
	ConfigurationSchema *JSONObject  `json:"configurationSchema"`
	TestConfiguration   *JSONObject  `json:"testConfiguration"`
	EmptyConfiguration  *JSONObject  `json:"emptyConfiguration"`
	Permissions         *Permissions `json:"permissions" validate:"omitempty,dive"`

	IsPublic *bool `json:"isPublic"`
}

// StateChange carries the workflow flags only the registry itself may set.
// It is never decoded from a request body.
type StateChange struct {
	IsApproved     *bool
	IsDeprecated   *bool
	ExpiredOn      *time.Time
	ReplacementApp *string
	DeletedOn      *time.Time

	// Icons overwrite both icon columns, a nil name clears the column.
	Icons *Icons
}

// Icons are the object names of the 32px and 64px app icons.
type Icons struct {
	Icon32 *string
	Icon64 *string
}

// column is one assignable column: its name, the value bound to the statement and
// how the same value is applied to an in memory row.
type column struct {
	name  string
	value interface{}
	apply func(a *App)
}

// Sanitize trims surrounding spaces of every text field.
func (p Payload) Sanitize() Payload {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}

		t := strings.TrimSpace(*s)
		return &t
	}

	p.Name = trim(p.Name)
	p.Type = trim(p.Type)
	p.ShortDescription = trim(p.ShortDescription)
	p.LongDescription = trim(p.LongDescription)
	p.LicenseURL = trim(p.LicenseURL)
	p.DocumentationURL = trim(p.DocumentationURL)
	p.RequiredMemory = trim(p.RequiredMemory)
	p.DefaultBucketStage = trim(p.DefaultBucketStage)
	p.LoggerType = trim(p.LoggerType)
	if p.Repository != nil {
		r := *p.Repository
		r.Type = trim(r.Type)
		r.URI = trim(r.URI)
		r.Tag = trim(r.Tag)
		p.Repository = &r
	}

	return p
}

// IsEmpty report whether the payload sets nothing.
func (p Payload) IsEmpty() bool {
	return len(p.columns()) == 0
}

// Stacks return stack names referenced by permissions, nil when permissions are not set.
func (p Payload) Stacks() []string {
	if p.Permissions == nil {
		return nil
	}

	return p.Permissions.Stacks()
}

// ApplyTo write the present fields onto app.
func (p Payload) ApplyTo(app *App) {
	for _, c := range p.columns() {
		c.apply(app)
	}
}

// columns list present fields in a stable order.
func (p Payload) columns() []column {
	cols := make([]column, 0, 32)
	str := func(name string, v *string, dst func(a *App) *string) {
		if v != nil {
			val := *v
			cols = append(cols, column{name: name, value: val, apply: func(a *App) { *dst(a) = val }})
		}
	}

	boolean := func(name string, v *bool, dst func(a *App) *bool) {
		if v != nil {
			val := *v
			cols = append(cols, column{name: name, value: val, apply: func(a *App) { *dst(a) = val }})
		}
	}

	object := func(name string, v *JSONObject, dst func(a *App) *JSONObject) {
		if v != nil {
			val := *v
			cols = append(cols, column{name: name, value: val, apply: func(a *App) { *dst(a) = val }})
		}
	}

	str("name", p.Name, func(a *App) *string { return &a.Name })
	str("type", p.Type, func(a *App) *string { return &a.Type })
	if p.Repository != nil {
		str("repo_type", p.Repository.Type, func(a *App) *string { return &a.RepoType })
		str("repo_uri", p.Repository.URI, func(a *App) *string { return &a.RepoURI })
		str("repo_tag", p.Repository.Tag, func(a *App) *string { return &a.RepoTag })
		object("repo_options", p.Repository.Options, func(a *App) *JSONObject { return &a.RepoOptions })
	}

	str("short_description", p.ShortDescription, func(a *App) *string { return &a.ShortDescription })
	str("long_description", p.LongDescription, func(a *App) *string { return &a.LongDescription })
	str("license_url", p.LicenseURL, func(a *App) *string { return &a.LicenseURL })
	str("documentation_url", p.DocumentationURL, func(a *App) *string { return &a.DocumentationURL })
	str("required_memory", p.RequiredMemory, func(a *App) *string { return &a.RequiredMemory })

	if p.ProcessTimeout != nil {
		val := *p.ProcessTimeout
		cols = append(cols, column{name: "process_timeout", value: val, apply: func(a *App) { a.ProcessTimeout = val }})
	}

	boolean("encryption", p.Encryption, func(a *App) *bool { return &a.Encryption })
	boolean("default_bucket", p.DefaultBucket, func(a *App) *bool { return &a.DefaultBucket })
	str("default_bucket_stage", p.DefaultBucketStage, func(a *App) *string { return &a.DefaultBucketStage })
	boolean("forward_token", p.ForwardToken, func(a *App) *bool { return &a.ForwardToken })
	boolean("forward_token_details", p.ForwardTokenDetails, func(a *App) *bool { return &a.ForwardTokenDetails })
	boolean("inject_environment", p.InjectEnvironment, func(a *App) *bool { return &a.InjectEnvironment })
	str("logger_type", p.LoggerType, func(a *App) *string { return &a.LoggerType })
	object("logger_configuration", p.LoggerConfiguration, func(a *App) *JSONObject { return &a.LoggerConfiguration })

	if p.UIOptions != nil {
		val := *p.UIOptions
		cols = append(cols, column{name: "ui_options", value: val, apply: func(a *App) { a.UIOptions = val }})
	}

	object("configuration_schema", p.ConfigurationSchema, func(a *App) *JSONObject { return &a.ConfigurationSchema })
	object("test_configuration", p.TestConfiguration, func(a *App) *JSONObject { return &a.TestConfiguration })
	object("empty_configuration", p.EmptyConfiguration, func(a *App) *JSONObject { return &a.EmptyConfiguration })

	if p.Permissions != nil {
		val := *p.Permissions
		cols = append(cols, column{name: "permissions", value: val, apply: func(a *App) { a.Permissions = val }})
	}

	boolean("is_public", p.IsPublic, func(a *App) *bool { return &a.IsPublic })
	return cols
}

// IsEmpty report whether the state change sets nothing.
func (s StateChange) IsEmpty() bool {
	return len(s.columns()) == 0
}

// ApplyTo write the present flags onto app.
func (s StateChange) ApplyTo(app *App) {
	for _, c := range s.columns() {
		c.apply(app)
	}
}

func (s StateChange) columns() []column {
	cols := make([]column, 0, 7)
	if s.IsApproved != nil {
		val := *s.IsApproved
		cols = append(cols, column{name: "is_approved", value: val, apply: func(a *App) { a.IsApproved = val }})
	}

	if s.IsDeprecated != nil {
		val := *s.IsDeprecated
		cols = append(cols, column{name: "is_deprecated", value: val, apply: func(a *App) { a.IsDeprecated = val }})
	}

	if s.ExpiredOn != nil {
		val := s.ExpiredOn.UTC()
		cols = append(cols, column{name: "expired_on", value: val, apply: func(a *App) { a.ExpiredOn = &val }})
	}

	if s.ReplacementApp != nil {
		val := *s.ReplacementApp
		cols = append(cols, column{name: "replacement_app", value: val, apply: func(a *App) { a.ReplacementApp = &val }})
	}

	if s.DeletedOn != nil {
		val := s.DeletedOn.UTC()
		cols = append(cols, column{name: "deleted_on", value: val, apply: func(a *App) { a.DeletedOn = &val }})
	}

	if s.Icons != nil {
		icon32, icon64 := copyStr(s.Icons.Icon32), copyStr(s.Icons.Icon64)
		cols = append(cols,
			column{name: "icon32", value: nullable(icon32), apply: func(a *App) { a.Icon32 = copyStr(icon32) }},
			column{name: "icon64", value: nullable(icon64), apply: func(a *App) { a.Icon64 = copyStr(icon64) }},
		)
	}

	return cols
}

// PayloadFromAttributes build a full content payload from a snapshot, used by rollback.
// Every field is present, a nil json value is written back as NULL.
// Workflow flags (isPublic, isDeprecated, expiredOn, replacementApp) are not part of content.
func PayloadFromAttributes(a Attributes) Payload {
	repoOptions := a.RepoOptions
	loggerConfiguration := a.LoggerConfiguration
	uiOptions := a.UIOptions
	configurationSchema := a.ConfigurationSchema
	testConfiguration := a.TestConfiguration
	emptyConfiguration := a.EmptyConfiguration
	permissions := a.Permissions

	return Payload{
		Name: strPtr(a.Name),
		Type: strPtr(a.Type),
		Repository: &RepositoryPayload{
			Type:    strPtr(a.RepoType),
			URI:     strPtr(a.RepoURI),
			Tag:     strPtr(a.RepoTag),
			Options: &repoOptions,
		},
		ShortDescription:    strPtr(a.ShortDescription),
		LongDescription:     strPtr(a.LongDescription),
		LicenseURL:          strPtr(a.LicenseURL),
		DocumentationURL:    strPtr(a.DocumentationURL),
		RequiredMemory:      strPtr(a.RequiredMemory),
		ProcessTimeout:      &a.ProcessTimeout,
		Encryption:          &a.Encryption,
		DefaultBucket:       &a.DefaultBucket,
		DefaultBucketStage:  strPtr(a.DefaultBucketStage),
		ForwardToken:        &a.ForwardToken,
		ForwardTokenDetails: &a.ForwardTokenDetails,
		InjectEnvironment:   &a.InjectEnvironment,
		LoggerType:          strPtr(a.LoggerType),
		LoggerConfiguration: &loggerConfiguration,
		UIOptions:           &uiOptions,
		ConfigurationSchema: &configurationSchema,
		TestConfiguration:   &testConfiguration,
		EmptyConfiguration:  &emptyConfiguration,
		Permissions:         &permissions,
	}
}

// IconsFromAttributes point the icon columns back to the objects of a snapshot, used by rollback.
// Versioned icon objects are never deleted so the names stay valid.
func IconsFromAttributes(a Attributes) *Icons {
	return &Icons{Icon32: a.Icon32, Icon64: a.Icon64}
}

func strPtr(s string) *string {
	return &s
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}

	return strPtr(*s)
}

// nullable turn a nil *string into an untyped nil so the driver binds NULL.
func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}

	return *s
}
