package i18n

import (
	"strconv"
	"strings"
)

type EmailContent struct {
	Subject string
	Text    string
	HTML    string
}

type emailStrings struct {
	ActivationSubject string
	ActivationText    string
	ActivationHTML    string

	PasswordResetSubject string
	PasswordResetText    string
	PasswordResetHTML    string
}

var emailTranslations = map[string]emailStrings{
	"en": {
		ActivationSubject: "Activate your account",
		ActivationText: "Hi {name},\n\nActivate your account: {link}\n" +
			"The link expires in {hours} hour(s).\n" +
			"If you did not create this account, ignore this email.",
		ActivationHTML: "<p>Hi {name},</p>" +
			"<p>Click the button to activate your account.</p>" +
			"<p><a href=\"{link}\">Activate my account</a></p>" +
			"<p>The link expires in {hours} hour(s).</p>" +
			"<p>If you did not create this account, ignore this email.</p>",

		PasswordResetSubject: "Reset your password",
		PasswordResetText: "Hi {name},\n\nReset your password: {link}\n" +
			"The link expires in {hours} hour(s).\n" +
			"If you did not request this, ignore this email.",
		PasswordResetHTML: "<p>Hi {name},</p>" +
			"<p>Click the button to reset your password.</p>" +
			"<p><a href=\"{link}\">Reset password</a></p>" +
			"<p>The link expires in {hours} hour(s).</p>" +
			"<p>If you did not request this, ignore this email.</p>",
	},
	"fr": {
		ActivationSubject: "Activez votre compte",
		ActivationText: "Bonjour {name},\n\nActivez votre compte : {link}\n" +
			"Le lien expire dans {hours} heure(s).\n" +
			"Si vous n'avez pas créé ce compte, ignorez cet email.",
		ActivationHTML: "<p>Bonjour {name},</p>" +
			"<p>Cliquez sur le bouton pour activer votre compte.</p>" +
			"<p><a href=\"{link}\">Activer mon compte</a></p>" +
			"<p>Le lien expire dans {hours} heure(s).</p>" +
			"<p>Si vous n'avez pas créé ce compte, ignorez cet email.</p>",

		PasswordResetSubject: "Réinitialisez votre mot de passe",
		PasswordResetText: "Bonjour {name},\n\nRéinitialisez votre mot de passe : {link}\n" +
			"Le lien expire dans {hours} heure(s).\n" +
			"Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.",
		PasswordResetHTML: "<p>Bonjour {name},</p>" +
			"<p>Cliquez sur le bouton pour réinitialiser votre mot de passe.</p>" +
			"<p><a href=\"{link}\">Réinitialiser le mot de passe</a></p>" +
			"<p>Le lien expire dans {hours} heure(s).</p>" +
			"<p>Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.</p>",
	},
}

func emailStringsForLocale(locale string) emailStrings {
	key := NormalizeLocale(locale)
	if val, ok := emailTranslations[key]; ok {
		return val
	}
	return emailTranslations[DefaultLocale]
}

func renderTemplate(tmpl string, values map[string]string) string {
	if tmpl == "" || len(values) == 0 {
		return tmpl
	}

	replacements := make([]string, 0, len(values)*2)
	for key, value := range values {
		replacements = append(replacements, "{"+key+"}", value)
	}
	return strings.NewReplacer(replacements...).Replace(tmpl)
}

func ActivationEmail(locale, name, link string, hours int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := map[string]string{
		"name":  name,
		"link":  link,
		"hours": strconv.Itoa(hours),
	}
	return EmailContent{
		Subject: templates.ActivationSubject,
		Text:    renderTemplate(templates.ActivationText, values),
		HTML:    renderTemplate(templates.ActivationHTML, values),
	}
}

func PasswordResetEmail(locale, name, link string, hours int) EmailContent {
	templates := emailStringsForLocale(locale)
	values := map[string]string{
		"name":  name,
		"link":  link,
		"hours": strconv.Itoa(hours),
	}
	return EmailContent{
		Subject: templates.PasswordResetSubject,
		Text:    renderTemplate(templates.PasswordResetText, values),
		HTML:    renderTemplate(templates.PasswordResetHTML, values),
	}
}
