package mail

import (
	"bytes"
	"html/template"
)

const (
	VerifySubject = "Verify Your Account - GENZMOBO"
	ResetSubject  = "Password Reset OTP - GENZMOBO"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<html>
<body style="font-family: Arial, sans-serif;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <h1 style="color: #ff6b35; font-size: 32px; letter-spacing: 5px;">{{.Code}}</h1>
  <p>This code will expire in {{.Minutes}} minutes.</p>
  <p>If you didn't request this, please ignore this email.</p>
</body>
</html>`))

type otpData struct {
	Heading string
	Intro   string
	Code    string
	Minutes int
}

func VerifyBody(username, code string, minutes int) (string, error) {
	return render(otpData{
		Heading: "Welcome " + username + "!",
		Intro:   "Your OTP code to verify your account is:",
		Code:    code,
		Minutes: minutes,
	})
}

func ResetBody(code string, minutes int) (string, error) {
	return render(otpData{
		Heading: "Reset Password OTP",
		Intro:   "Your OTP code to reset password is:",
		Code:    code,
		Minutes: minutes,
	})
}

func render(data otpData) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
