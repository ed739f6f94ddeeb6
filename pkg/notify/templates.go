package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// TemplateManager holds the parsed notification templates.
type TemplateManager struct {
	enRouteTmpl  *template.Template
	reminderTmpl *template.Template
}

// NewTemplateManager parses all notification templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	enRouteTmpl, err := template.New("enRoute").Parse(enRouteTemplate)
	if err != nil {
		return nil, err
	}

	reminderTmpl, err := template.New("reminder").Parse(reminderTemplate)
	if err != nil {
		return nil, err
	}

	return &TemplateManager{
		enRouteTmpl:  enRouteTmpl,
		reminderTmpl: reminderTmpl,
	}, nil
}

// TemplateData holds the dynamic data for a notification template.
type TemplateData struct {
	CustomerName   string
	TechnicianName string
	ServiceType    string
	Date           string
	Time           string
}

// EnRouteMessage builds the "technician en route" notification.
func (tm *TemplateManager) EnRouteMessage(data TemplateData) (Message, error) {
	var body bytes.Buffer
	if err := tm.enRouteTmpl.Execute(&body, data); err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "Your technician is on the way",
		PlainText: fmt.Sprintf("%s is on the way for your %s service.",
			data.TechnicianName, data.ServiceType),
		HTML: body.String(),
	}, nil
}

// ReminderMessage builds the upcoming-appointment reminder.
func (tm *TemplateManager) ReminderMessage(data TemplateData) (Message, error) {
	var body bytes.Buffer
	if err := tm.reminderTmpl.Execute(&body, data); err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "Upcoming service appointment",
		PlainText: fmt.Sprintf("Reminder: %s service on %s at %s.",
			data.ServiceType, data.Date, data.Time),
		HTML: body.String(),
	}, nil
}

// --- HTML Template Definitions ---

const enRouteTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Technician En Route</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Hi {{.CustomerName}},</h2>
	<p>{{.TechnicianName}} is on the way for your {{.ServiceType}} service.</p>
	<p>You will receive another message once the work is complete.</p>
</body>
</html>
`

const reminderTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Appointment Reminder</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Hi {{.CustomerName}},</h2>
	<p>This is a reminder of your {{.ServiceType}} service on {{.Date}} at {{.Time}}.</p>
	<p>Reply to this message if you need to reschedule.</p>
</body>
</html>
`
