package usecase

type emailTemplate struct {
	name    string
	subject string
	text    string
	html    string
}

var welcomeTemplate = emailTemplate{
	name:    "welcome",
	subject: "Welcome to {{.app_name}}, {{.first_name}}",
	text: `Hi {{.first_name}},

Your {{.app_name}} account is ready. Sign in at {{.web_url}}.

Questions? Write to {{.support_email}}.
`,
	html: `<p>Hi {{.first_name}},</p>
<p>Your {{.app_name}} account is ready. <a href="{{.web_url}}">Sign in</a>.</p>
<p>Questions? Write to <a href="mailto:{{.support_email}}">{{.support_email}}</a>.</p>
<p style="color:#888">&copy; {{.year}} {{.app_name}}</p>`,
}

var passwordResetTemplate = emailTemplate{
	name:    "password_reset",
	subject: "Reset your {{.app_name}} password",
	text: `Hi {{.first_name}},

Someone asked to reset the password of your {{.app_name}} account.
Open this link within {{.ttl_minutes}} minutes to choose a new one:

{{.reset_url}}

If it was not you, ignore this message; your password stays unchanged.
`,
	html: `<p>Hi {{.first_name}},</p>
<p>Someone asked to reset the password of your {{.app_name}} account.
Open this link within {{.ttl_minutes}} minutes to choose a new one:</p>
<p><a href="{{.reset_url}}">Reset password</a></p>
<p>If it was not you, ignore this message; your password stays unchanged.</p>
<p style="color:#888">&copy; {{.year}} {{.app_name}}</p>`,
}
