package mailclient

// Credential of the SMTP relay. Identity may be left blank to authorize as Username.
type Credential struct {
	Host     string `validate:"required"`
	Port     int    `validate:"required,min=1,max=65535"`
	Identity string `validate:"-"`
	Username string `validate:"required"`
	Password string `validate:"required"`

	// DisableStartTLS is only meant for local mail catchers.
	DisableStartTLS bool `validate:"-"`
}
