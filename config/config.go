package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Eingabe-Verzeichnisse für den Batch-Lauf
	XMLDir  string `envconfig:"XML_DIR" default:"xmls"`
	JSONDir string `envconfig:"JSON_DIR" default:"jsons"`
	PDFDir  string `envconfig:"PDF_DIR" default:"pdfs"`

	// Ausgabe für extrahierte Bilder
	ImagesDir string `envconfig:"IMAGES_DIR" default:"images"`

	// Kuratierte Liste kanonischer Autorennamen (JSON, Gruppe -> Namen)
	RosterFile string `envconfig:"ROSTER_FILE" default:"authors.json"`

	// Semantic-Scholar-Exporte für den Metrik-Abgleich
	SemanticDir string `envconfig:"SEMANTIC_DIR" default:"semanticAPI"`

	// Mindestjahr für Feed-Einträge; ältere werden verworfen
	MinYear int `envconfig:"MIN_YEAR" default:"2020"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 0 * * *"`

	// Optionales Spiegeln der extrahierten Bilder nach S3
	S3Enabled      bool   `envconfig:"S3_ENABLED" default:"false"`
	StratoS3Key    string `envconfig:"STRATO_S3_KEY"`
	StratoS3Secret string `envconfig:"STRATO_S3_SECRET"`
	StratoS3URL    string `envconfig:"STRATO_S3_URL"`
	StratoS3Region string `envconfig:"STRATO_S3_REGION"`
	StratoS3Bucket string `envconfig:"STRATO_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
