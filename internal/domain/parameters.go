package domain

// ParameterName is the name of a database connection parameter. The same name
// is used as the environment variable and as the secret key.
type ParameterName string

const (
	ParamHost     ParameterName = "DB_HOST"
	ParamPort     ParameterName = "DB_PORT"
	ParamUser     ParameterName = "DB_USER"
	ParamPassword ParameterName = "DB_PASS"
	ParamName     ParameterName = "DB_NAME"
)

// ConnectionParameters lists every parameter needed to build a connection URL.
var ConnectionParameters = []ParameterName{
	ParamUser,
	ParamPassword,
	ParamHost,
	ParamPort,
	ParamName,
}

func (p ParameterName) String() string {
	return string(p)
}

// Parameter is a single resolved connection parameter.
type Parameter struct {
	Name    ParameterName
	Value   any
	Default any
}
