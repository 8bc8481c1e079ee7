// Package templates renders notification payloads into provider-neutral emails.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	notify "empverify/internal/notify/models"
)

//go:embed html/*.html
var files embed.FS

// Brand is the sender identity shown in every message.
type Brand struct {
	CompanyName  string
	SupportEmail string
	FromAddress  string
	FromName     string
}

// Renderer turns notifications into emails. It is safe for concurrent use.
type Renderer struct {
	brand Brand
	tmpl  *template.Template
}

func New(brand Brand) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(files, "html/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{brand: brand, tmpl: tmpl}, nil
}

type view struct {
	Brand Brand
	Data  any
}

// Render builds the email for n. Unknown kinds and mismatched payloads are errors.
func (r *Renderer) Render(n notify.Notification) (notify.Email, error) {
	subject, text, err := r.plain(n)
	if err != nil {
		return notify.Email{}, err
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, string(n.Kind)+".html", view{Brand: r.brand, Data: n.Data}); err != nil {
		return notify.Email{}, fmt.Errorf("render %s: %w", n.Kind, err)
	}

	return notify.Email{
		To:          n.To,
		FromAddress: r.brand.FromAddress,
		FromName:    r.brand.FromName,
		Subject:     subject,
		HTML:        buf.String(),
		Text:        text,
	}, nil
}

func (r *Renderer) plain(n notify.Notification) (subject, text string, err error) {
	company := r.brand.CompanyName
	switch d := n.Data.(type) {
	case notify.OTPData:
		if n.Kind != notify.KindOTP {
			break
		}
		return "Your OTP Code - " + company,
			fmt.Sprintf("Your OTP for %s login is: %s. This OTP is valid for %d minutes. Do not share this with anyone.",
				company, d.Code, d.ExpiryMinutes), nil
	case notify.AppealCreatedData:
		if n.Kind != notify.KindAppealCreated {
			break
		}
		return fmt.Sprintf("New Appeal Submitted - Employee %s", d.EmployeeID),
			fmt.Sprintf("A new appeal (%s) was submitted by %s (%s) for employee %s. Comments: %s",
				d.AppealID, d.VerifierCompany, d.VerifierEmail, d.EmployeeID, d.Comments), nil
	case notify.AppealResolvedData:
		if n.Kind != notify.KindAppealResolved {
			break
		}
		return fmt.Sprintf("Appeal %s - Employee %s", titleCase(d.Status), d.EmployeeID),
			fmt.Sprintf("Your appeal %s for employee %s has been %s. HR response: %s",
				d.AppealID, d.EmployeeID, d.Status, d.HRResponse), nil
	case notify.VerificationReportData:
		if n.Kind != notify.KindVerificationReport {
			break
		}
		return fmt.Sprintf("Verification Report - %s (%s)", d.EmployeeName, d.EmployeeID),
			fmt.Sprintf("Verification %s for employee %s completed with status %s (%d%%, %d of %d fields matched).",
				d.VerificationID, d.EmployeeID, d.OverallStatus, d.MatchScore, d.MatchedFields, d.TotalFields), nil
	case notify.WelcomeData:
		if n.Kind != notify.KindWelcome {
			break
		}
		return "Welcome to " + company + " Employee Verification Portal",
			fmt.Sprintf("Hello %s, your verifier account for %s is ready.", d.DisplayName, d.CompanyName), nil
	}
	return "", "", fmt.Errorf("no template for %s with payload %T", n.Kind, n.Data)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
