package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string, logLevel logger.LogLevel) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Unique-violation errors must surface as gorm.ErrDuplicatedKey
		// so concurrent work-order creation maps to a conflict, not a
		// storage failure.
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established")
	return nil
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		// Catalog models
		&Asset{},
		&AssetComponent{},
		&AssetSubcomponent{},
		&SymptomTag{},
		// Workflow models
		&Occurrence{},
		&OccurrenceReport{},
		&OccurrenceLink{},
		&WorkOrder{},
		// Settings
		&MatcherSettings{},
		&SlackSettings{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// InitializeDefaults creates default records if they don't exist
func InitializeDefaults() error {
	log.Println("Initializing default database records...")

	if _, err := GetOrCreateMatcherSettings(DB); err != nil {
		return fmt.Errorf("failed to create default matcher settings: %w", err)
	}

	var count int64
	DB.Model(&SlackSettings{}).Count(&count)
	if count == 0 {
		defaultSlackSettings := &SlackSettings{
			Enabled: false, // Disabled by default until configured
		}
		if err := DB.Create(defaultSlackSettings).Error; err != nil {
			return fmt.Errorf("failed to create default slack settings: %w", err)
		}
		log.Println("Created default Slack settings (disabled)")
	}

	if err := seedSymptomTags(DB); err != nil {
		return fmt.Errorf("failed to seed symptom tags: %w", err)
	}

	return nil
}

// Default symptom vocabulary, created once on an empty database. Operators
// can extend the table afterwards; rows are matched by name.
var defaultSymptomTags = []SymptomTag{
	{Name: "leak", Category: "fluid"},
	{Name: "abnormal-noise", Category: "mechanical"},
	{Name: "vibration", Category: "mechanical"},
	{Name: "overheating", Category: "thermal"},
	{Name: "no-power", Category: "electrical"},
	{Name: "tripped-breaker", Category: "electrical"},
	{Name: "error-code", Category: "control"},
	{Name: "jam", Category: "mechanical"},
	{Name: "wear", Category: "mechanical"},
	{Name: "smell", Category: "other"},
}

func seedSymptomTags(db *gorm.DB) error {
	for _, tag := range defaultSymptomTags {
		var existing SymptomTag
		if err := db.Where("name = ?", tag.Name).First(&existing).Error; err == nil {
			continue
		}
		t := tag
		if err := db.Create(&t).Error; err != nil {
			return fmt.Errorf("failed to create symptom tag %s: %w", tag.Name, err)
		}
	}
	return nil
}

// GetSlackSettings retrieves Slack settings from the database
func GetSlackSettings() (*SlackSettings, error) {
	var settings SlackSettings
	if err := DB.First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSlackSettings updates Slack settings in the database
func UpdateSlackSettings(settings *SlackSettings) error {
	return DB.Model(&SlackSettings{}).Where("id = ?", settings.ID).Updates(map[string]interface{}{
		"bot_token":        settings.BotToken,
		"dispatch_channel": settings.DispatchChannel,
		"enabled":          settings.Enabled,
	}).Error
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
