package assets

import "embed"

// ServiceName is used as tracer service name and CLI name.
const ServiceName = "devportal"

//go:embed swaggerui/index.html
var SwaggerUI embed.FS
