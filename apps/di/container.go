// Package di wires configuration, storage and services for the binaries.
package di

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/chapter"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/question"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/reconcile"
	"github.com/trezcool/elimu/services/identity"
	"github.com/trezcool/elimu/services/lock"
	"github.com/trezcool/elimu/services/logger"
	"github.com/trezcool/elimu/storage/database"
	"github.com/trezcool/elimu/storage/database/inmem"
	"github.com/trezcool/elimu/storage/database/sqlx"
)

const (
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

type Container struct {
	Conf   *core.Config
	Logger *logsvc.RollbarLogger
	DB     *sqlx.DB // nil with the inmem engine
	Redis  *redis.Client

	Verifier     core.IdentityVerifier // nil in jwt mode
	CourseSvc    *course.Service
	ChapterSvc   *chapter.Service
	QuizSvc      *quiz.Service
	ReconcileSvc *reconcile.Service
}

type repos struct {
	courses     course.Repository
	enrollments course.EnrollmentRepository
	commissions course.CommissionRepository
	chapters    chapter.Repository
	quizzes     quiz.Repository
	questions   question.Repository
	submissions quiz.SubmissionRepository
	tx          core.TxRunner
}

func NewLogger(conf *core.Config, name string) (*logsvc.RollbarLogger, error) {
	sugar, err := logsvc.NewZap(conf.Env)
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	return logsvc.NewRollbarLogger(sugar, conf).Named(name), nil
}

// SetUpDB creates the database if needed, connects and applies pending migrations.
func SetUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New builds every service over the configured engine. Close releases what it opened.
func New(ctx context.Context, conf *core.Config, name string) (*Container, error) {
	logger, err := NewLogger(conf, name)
	if err != nil {
		return nil, err
	}
	c := &Container{Conf: conf, Logger: logger}

	var rs repos
	switch conf.Database.Engine {
	case database.EngineInmem, "":
		rs = inmemRepos(inmemdb.Open())
	default:
		if c.DB, err = SetUpDB(ctx, conf); err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		rs = sqlxRepos(c.DB)
	}

	var locker core.Locker = locksvc.NewLocalLocker()
	if conf.RedisURL != "" {
		if c.Redis, err = locksvc.NewRedisClient(ctx, conf.RedisURL); err != nil {
			_ = c.Close()
			return nil, err
		}
		locker = locksvc.NewRedisLocker(c.Redis, logger.Named("lock"), locksvc.WithTTL(conf.LockTTL))
	}

	switch conf.Auth.Mode {
	case AuthModeJWT, "":
	case AuthModeRemote:
		if conf.Auth.LoginServiceURL == "" {
			_ = c.Close()
			return nil, errors.New("auth.loginServiceURL is required in remote auth mode")
		}
		c.Verifier = identitysvc.NewRemoteVerifier(conf.Auth.LoginServiceURL, conf.Auth.Timeout)
	default:
		_ = c.Close()
		return nil, errors.Errorf("unsupported auth mode %q", conf.Auth.Mode)
	}

	questionSvc := question.NewService(
		rs.questions,
		question.NewGrader(question.WithStrictMultipleChoice(conf.StrictMultipleChoice)),
	)
	c.QuizSvc = quiz.NewService(rs.quizzes, rs.submissions, questionSvc, rs.courses, rs.enrollments, logger.Named("quiz"))
	c.ChapterSvc = chapter.NewService(rs.chapters, rs.courses, rs.tx, locker, logger.Named("chapter"))
	c.CourseSvc = course.NewService(
		rs.courses, rs.enrollments, rs.commissions, c.QuizSvc, c.ChapterSvc, logger.Named("course"),
		course.WithSearchMaxLimit(conf.SearchMaxLimit),
	)
	c.ReconcileSvc = reconcile.NewService(
		rs.courses, rs.chapters, rs.quizzes, rs.questions, c.ChapterSvc, logger.Named("reconcile"),
	)
	return c, nil
}

func inmemRepos(db *inmemdb.DB) repos {
	return repos{
		courses:     inmemdb.NewCourseRepository(db),
		enrollments: inmemdb.NewEnrollmentRepository(db),
		commissions: inmemdb.NewCommissionRepository(db),
		chapters:    inmemdb.NewChapterRepository(db),
		quizzes:     inmemdb.NewQuizRepository(db),
		questions:   inmemdb.NewQuestionRepository(db),
		submissions: inmemdb.NewSubmissionRepository(db),
		tx:          inmemdb.TxRunner{},
	}
}

func sqlxRepos(db *sqlx.DB) repos {
	return repos{
		courses:     sqlxrepos.NewCourseRepository(db),
		enrollments: sqlxrepos.NewEnrollmentRepository(db),
		commissions: sqlxrepos.NewCommissionRepository(db),
		chapters:    sqlxrepos.NewChapterRepository(db),
		quizzes:     sqlxrepos.NewQuizRepository(db),
		questions:   sqlxrepos.NewQuestionRepository(db),
		submissions: sqlxrepos.NewSubmissionRepository(db),
		tx:          database.NewTxRunner(db),
	}
}

func (c *Container) Close() error {
	var err error
	if c.Redis != nil {
		err = errors.Wrap(c.Redis.Close(), "closing redis")
	}
	if c.DB != nil {
		if dbErr := c.DB.Close(); dbErr != nil && err == nil {
			err = errors.Wrap(dbErr, "closing database")
		}
	}
	c.Logger.Sync()
	return err
}
