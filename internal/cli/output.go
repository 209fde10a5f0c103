package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case RegisterResult:
		o.printRegisterResult(v)
	case LoginResult:
		o.printLoginResult(v)
	case Claim:
		o.printClaim(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterResult response type
type RegisterResult struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// LoginResult combines user and token
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// Claim is the identity the server sees for a token
type Claim struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MeResult response type
type MeResult struct {
	User Claim `json:"user"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func (o *Output) printRegisterResult(r RegisterResult) {
	_, _ = fmt.Fprintf(o.w, "%s (id %d)\n", r.Message, r.UserID)
}

func (o *Output) printLoginResult(l LoginResult) {
	_, _ = fmt.Fprintf(o.w, "Logged in as %s <%s> (id %d)\n", l.User.Username, l.User.Email, l.User.ID)
	if !l.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintf(o.w, "Session expires: %s\n", l.ExpiresAt.Local().Format(time.RFC1123))
	}
}

func (o *Output) printClaim(c Claim) {
	_, _ = fmt.Fprintf(o.w, "User: %s (id %d)\n", c.Username, c.ID)
	_, _ = fmt.Fprintf(o.w, "Email: %s\n", c.Email)
	_, _ = fmt.Fprintf(o.w, "Issued: %s\n", c.IssuedAt.Local().Format(time.RFC1123))
	_, _ = fmt.Fprintf(o.w, "Expires: %s\n", c.ExpiresAt.Local().Format(time.RFC1123))
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Storage != "" {
		_, _ = fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	}
}
