// Package templates renders email bodies from templ components.
//
// A Registry maps template identifiers to functions that build a component
// from the message's template data, and satisfies email.Renderer:
//
//	reg := templates.NewRegistry()
//	reg.MustRegister("welcome", func(data map[string]any) templ.Component {
//		return views.Welcome(data["name"].(string))
//	})
//	sender, err := email.NewSender(factory, email.WithRenderer(reg))
//
// The built-in "generic" template renders "title" and "content" in a minimal layout.
package templates
