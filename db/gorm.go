package db

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"Bt1QPlayer/config"
	"Bt1QPlayer/logger"
	"Bt1QPlayer/model"
)

// GormDB 是 GORM 数据库连接实例
var GormDB *gorm.DB

// DSN builds the MySQL data source name for cfg.
func DSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%s", cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// zapWriter routes GORM's printf-style log lines into the application logger.
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...), logger.String("component", "gorm"))
}

// ConnectGormDB 建立 GORM 数据库连接
func ConnectGormDB(cfg *config.Config) error {
	gl := gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	var err error
	GormDB, err = gorm.Open(gormmysql.Open(DSN(cfg)), &gorm.Config{
		Logger:                                   gl,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Connected to the database with GORM", logger.String("addr", cfg.DBHost+":"+cfg.DBPort), logger.String("db", cfg.DBName))
	return nil
}

// CloseGormDB 关闭 GORM 数据库连接
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}
	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates the library tables.
func AutoMigrate() error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not initialized")
	}
	if err := GormDB.AutoMigrate(&model.PlayHistory{}, &model.TrackStat{}, &model.LikedSong{}); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("Models migrated successfully with GORM")
	return nil
}
