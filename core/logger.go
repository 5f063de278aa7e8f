package core

// Logger is any service that can record application events.
// args may carry errors, maps of extra data and a Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the signed in user in log reports.
type Person struct {
	ID       string
	Username string
	Email    string
}
