package display

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Notification templates for events other players observe. Kept as
// templates so the phrasing can be tuned without touching actor code.
var messageTemplates = template.Must(
	template.New("messages").Funcs(sprig.TxtFuncMap()).Parse(strings.TrimSpace(`
{{- define "arrive" }}{{ .Name }} arrives from the {{ .Direction | lower }}.{{ end }}
{{- define "leave" }}{{ .Name }} leaves {{ .Direction | lower }}.{{ end }}
{{- define "enter" }}{{ .Name }} appears from thin air.{{ end }}
{{- define "depart" }}{{ .Name }} leaves the world.{{ end }}
{{- define "vanish" }}{{ .Name }} vanishes in a puff of smoke.{{ end }}
{{- define "say" }}{{ .Name }} says, "{{ .Text }}"{{ end }}
{{- define "emote" }}{{ .Name }} {{ .Text }}{{ end }}
{{- define "shout" }}{{ .Name }} shouts, "{{ .Text }}"{{ end }}
{{- define "tell" }}{{ .Name }} tells you, "{{ .Text }}"{{ end }}
{{- define "login" }}[{{ .Name }} has entered the world.]{{ end }}
{{- define "logout" }}[{{ .Name }} has left the world.]{{ end }}
`)))

type messageData struct {
	Name      string
	Direction string
	Text      string
}

// Message renders the named notification template. A rendering failure
// falls back to a plain readable string rather than failing the caller.
func Message(name string, who, directionOrText string) string {
	data := messageData{Name: who}
	switch name {
	case "arrive", "leave":
		data.Direction = directionOrText
	default:
		data.Text = directionOrText
	}

	var b strings.Builder
	if err := messageTemplates.ExecuteTemplate(&b, name, data); err != nil {
		return fmt.Sprintf("%s %s", who, directionOrText)
	}
	return b.String()
}
