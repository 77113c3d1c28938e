package authclient

// TemplateUserKey is the template variable holding the current user.
var TemplateUserKey = "session_user"

// TemplateHelpers returns the session derived data shared by every view.
//
// In templates:
//
//	{% if is_authenticated %}
//	{% if is_admin %}
//	{{ session_user.Name }} ({{ role }})
func TemplateHelpers(s Session) map[string]any {
	data := map[string]any{
		"loading":          s.IsLoading(),
		"is_authenticated": s.IsAuthenticated(),
		"is_admin":         false,
		"login_failed":     s.Failed(),
		"roles": map[string]int{
			"admin":   int(RoleAdmin),
			"student": int(RoleStudent),
		},
	}

	if s.IsAuthenticated() {
		data[TemplateUserKey] = s.User
		data["is_admin"] = s.User.IsAdmin()
		data["role"] = s.User.RoleID.String()
	}
	return data
}
