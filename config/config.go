package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment    string
	Port           string
	DBDriver       string
	DBURL          string
	AllowedOrigins []string
	BusinessName   string
	Timezone       string // IANA name; wall-clock rules for dates and series

	ReminderSchedule string
	ExpirySchedule   string
	ReminderWindow   int // hours ahead

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	SendgridAPIKey string
	FromEmail      string

	StatementSecret  string
	StatementLinkTTL int // hours
}

func Load() *Config {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	v := viper.New()
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_URL", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("BUSINESS_NAME", "TutorBook")
	v.SetDefault("REMINDER_SCHEDULE", "0 18 * * *")
	v.SetDefault("EXPIRY_SCHEDULE", "15 0 * * *")
	v.SetDefault("REMINDER_WINDOW_HOURS", 24)
	v.SetDefault("FROM_EMAIL", "noreply@localhost")
	v.SetDefault("STATEMENT_LINK_TTL_HOURS", 168)
	v.AutomaticEnv()

	return &Config{
		Environment:       v.GetString("ENV"),
		Port:              v.GetString("PORT"),
		DBDriver:          strings.ToLower(v.GetString("DB_DRIVER")),
		DBURL:             v.GetString("DB_URL"),
		AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
		BusinessName:      v.GetString("BUSINESS_NAME"),
		Timezone:          v.GetString("TIMEZONE"),
		ReminderSchedule:  v.GetString("REMINDER_SCHEDULE"),
		ExpirySchedule:    v.GetString("EXPIRY_SCHEDULE"),
		ReminderWindow:    v.GetInt("REMINDER_WINDOW_HOURS"),
		TwilioAccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: v.GetString("TWILIO_PHONE_NUMBER"),
		SendgridAPIKey:    v.GetString("SENDGRID_API_KEY"),
		FromEmail:         v.GetString("FROM_EMAIL"),
		StatementSecret:   v.GetString("STATEMENT_SECRET"),
		StatementLinkTTL:  v.GetInt("STATEMENT_LINK_TTL_HOURS"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
