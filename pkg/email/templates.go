package email

import (
	"bytes"
	"context"
	"html/template"
)

// 邮件模板，土耳其语文案沿用产品既有口径

const alarmSubject = "🚨 ACİL DURUM - Öldün mü? Alarm Bildirimi"

var alarmTemplate = template.Must(template.New("alarm").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #DC2626; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
.content { background: #FEE2E2; padding: 30px; border-radius: 0 0 8px 8px; border: 2px solid #DC2626; }
.alert { font-size: 18px; font-weight: bold; color: #DC2626; text-align: center; margin-bottom: 20px; }
.footer { text-align: center; margin-top: 20px; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>🚨 ACİL DURUM ALARMI</h1></div>
<div class="content">
<p class="alert">Bu bir acil durum bildirimidir!</p>
<p>Merhaba <strong>{{.ContactName}}</strong>,</p>
<p><strong>{{.UserName}}</strong> sizi acil durum kişisi olarak eklemiştir ve bir alarm tetiklendi.</p>
{{if .Message}}<p><strong>Mesaj:</strong> {{.Message}}</p>{{end}}
{{if .MapLink}}<p><strong>Son bilinen konum:</strong> <a href="{{.MapLink}}">haritada görüntüle</a></p>{{end}}
<p style="font-weight: bold; color: #DC2626;">Lütfen en kısa sürede iletişime geçmeye çalışın.</p>
</div>
<div class="footer"><p>&copy; 2025 Öldün mü? - Güvenliğiniz için buradayız.</p></div>
</div>
</body>
</html>`))

// AlarmEmailData 告警邮件模板变量
type AlarmEmailData struct {
	ContactName string
	UserName    string
	Message     string
	MapLink     string
}

// SendAlarmNotification 给联系人发送告警邮件
func SendAlarmNotification(ctx context.Context, to string, data AlarmEmailData) error {
	var buf bytes.Buffer
	if err := alarmTemplate.Execute(&buf, data); err != nil {
		return err
	}
	return Send(ctx, to, alarmSubject, buf.String())
}

const verificationSubject = "Öldün mü? - Acil Durum Kişisi Doğrulama"

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #4F46E5; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
.content { background: #f9f9f9; padding: 30px; border-radius: 0 0 8px 8px; }
.code { font-size: 32px; font-weight: bold; color: #4F46E5; text-align: center; padding: 20px; background: white; border-radius: 8px; margin: 20px 0; letter-spacing: 8px; }
.footer { text-align: center; margin-top: 20px; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>Öldün mü?</h1></div>
<div class="content">
<p>Merhaba <strong>{{.ContactName}}</strong>,</p>
<p><strong>{{.UserName}}</strong> sizi acil durum kişisi olarak eklemek istiyor. Onaylamak için aşağıdaki kodu kullanın:</p>
<div class="code">{{.Code}}</div>
<p>Bu kod 24 saat geçerlidir.</p>
<p>Eğer bu kişiyi tanımıyorsanız, bu e-postayı görmezden gelebilirsiniz.</p>
</div>
<div class="footer"><p>&copy; 2025 Öldün mü? - Güvenliğiniz için buradayız.</p></div>
</div>
</body>
</html>`))

// VerificationEmailData 联系人验证邮件模板变量
type VerificationEmailData struct {
	ContactName string
	UserName    string
	Code        string
}

// SendContactVerification 给联系人发送验证码邮件
func SendContactVerification(ctx context.Context, to string, data VerificationEmailData) error {
	var buf bytes.Buffer
	if err := verificationTemplate.Execute(&buf, data); err != nil {
		return err
	}
	return Send(ctx, to, verificationSubject, buf.String())
}
