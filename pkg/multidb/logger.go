package multidb

import (
	"context"

	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/yusufsyaifudin/ylog"
)

type QueryLogger struct{}

func (q *QueryLogger) Log(ctx context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	if level == sqldblogger.LevelError {
		ylog.Error(ctx, msg, ylog.KV("sql", data))
		return
	}

	ylog.Debug(ctx, msg, ylog.KV("level", level.String()), ylog.KV("sql", data))
}

var _ sqldblogger.Logger = (*QueryLogger)(nil)
