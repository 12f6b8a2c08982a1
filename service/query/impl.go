package query

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/base/database/mongoclient"
	"github.com/x-xyz/auctionhouse/base/log"
	"github.com/x-xyz/auctionhouse/base/metrics"
	"github.com/x-xyz/auctionhouse/domain"
)

const (
	queryMaxTime    = 20 * time.Second
	slowLogMs       = int64(500)
	concurrentTxLim = 10
)

var (
	timeNow = time.Now
)

type impl struct {
	client *mongoclient.Client
	met    metrics.Service
	tokens chan int
}

// New initializes an impl
func New(client *mongoclient.Client) Mongo {
	tokens := make(chan int, concurrentTxLim)
	for i := 0; i < concurrentTxLim; i++ {
		tokens <- i + 1
	}
	return &impl{
		client: client,
		met:    metrics.New("mongo"),
		tokens: tokens,
	}
}

func (im *impl) coll(table domain.Table) *mongo.Collection {
	return im.client.Database(im.client.DbName).Collection(string(table))
}

func (im *impl) logerr(context ctx.Ctx, msg string, err error) {
	im.met.BumpSum("err", 1, "msg", msg)
	context.WithFields(log.Fields{"err": err}).Error(msg)
}

func (im *impl) Insert(context ctx.Ctx, table domain.Table, insert interface{}) error {
	defer im.slowLog(context, table, "insert", nil, "")()

	if _, err := im.coll(table).InsertOne(context, insert); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		im.logerr(ctx.WithValue(context, "table", table), "Insert: InsertOne failed", err)
		return err
	}
	return nil
}

func (im *impl) FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error {
	defer im.slowLog(context, table, "findone", query, "")()

	opts := options.FindOne().SetMaxTime(queryMaxTime)
	if err := im.coll(table).FindOne(context, query, opts).Decode(result); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		im.logerr(ctx.WithValues(context, map[string]interface{}{"table": table, "query": query}), "FindOne: FindOne error", err)
		return err
	}
	return nil
}

func (im *impl) Count(context ctx.Ctx, table domain.Table, selector interface{}) (int, error) {
	defer im.slowLog(context, table, "count", selector, "")()

	opts := options.Count().SetMaxTime(queryMaxTime)
	count, err := im.coll(table).CountDocuments(context, selector, opts)
	if err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "Count: CountDocuments failed", err)
		return 0, err
	}
	return int(count), nil
}

func (im *impl) Upsert(context ctx.Ctx, table domain.Table, selector, update interface{}) error {
	defer im.slowLog(context, table, "upsert", selector, "")()

	opts := options.Replace().SetUpsert(true)
	if _, err := im.coll(table).ReplaceOne(context, selector, update, opts); err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "Upsert: ReplaceOne failed", err)
		return err
	}
	return nil
}

func sortOption(sortStrings ...string) bson.D {
	res := bson.D{}
	for _, sort := range sortStrings {
		if sort == "" {
			continue
		}
		if sort[0] == '-' {
			res = append(res, bson.E{Key: sort[1:], Value: -1})
		} else {
			res = append(res, bson.E{Key: sort, Value: 1})
		}
	}
	return res
}

func (im *impl) Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error {
	defer im.slowLog(context, table, "search", query, sort)()

	opts := options.Find().SetMaxTime(queryMaxTime).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if s := sortOption(sort); len(s) > 0 {
		opts.SetSort(s)
	}
	cursor, err := im.coll(table).Find(context, query, opts)
	if err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "Search: Find failed", err)
		return err
	}
	defer cursor.Close(context)

	if err := cursor.All(context, results); err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "Search: cursor.All failed", err)
		return err
	}
	return nil
}

func (im *impl) Remove(context ctx.Ctx, table domain.Table, selector interface{}) error {
	defer im.slowLog(context, table, "remove", selector, "")()

	res, err := im.coll(table).DeleteOne(context, selector)
	if err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "Remove: DeleteOne failed", err)
		return err
	} else if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) RemoveAll(context ctx.Ctx, table domain.Table, selector interface{}) (int64, error) {
	defer im.slowLog(context, table, "removeAll", selector, "")()

	res, err := im.coll(table).DeleteMany(context, selector)
	if err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "RemoveAll: DeleteMany failed", err)
		return 0, err
	}
	return res.DeletedCount, nil
}

func (im *impl) Patch(context ctx.Ctx, table domain.Table, selector, update interface{}, ops ...PatchOp) error {
	defer im.slowLog(context, table, "update", selector, "")()

	o := &patchOp{}
	for _, opt := range ops {
		opt(o)
	}

	var (
		res *mongo.UpdateResult
		err error
	)
	updater := bson.M{"$set": update}
	if o.patchMany {
		res, err = im.coll(table).UpdateMany(context, selector, updater)
	} else {
		res, err = im.coll(table).UpdateOne(context, selector, updater)
	}
	if err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "Patch: Update failed", err)
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) EnsureIndexes(context ctx.Ctx, table domain.Table, indexes ...Index) error {
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		models = append(models, mongo.IndexModel{
			Keys:    sortOption(idx.Keys...),
			Options: options.Index().SetUnique(idx.Unique),
		})
	}
	if _, err := im.coll(table).Indexes().CreateMany(context, models); err != nil {
		im.logerr(ctx.WithValue(context, "table", table), "EnsureIndexes: CreateMany failed", err)
		return err
	}
	return nil
}

// RunWithTransaction runs run in a session transaction, the ctx passed to run must be
// used for every call that belongs to the transaction.
func (im *impl) RunWithTransaction(context ctx.Ctx, run func(ctx.Ctx) error) error {
	var token int
	select {
	case <-context.Done():
		return context.Err()
	case token = <-im.tokens:
	}
	defer func() { im.tokens <- token }()

	session, err := im.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context)

	fn := func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, run(ctx.WithContext(context, sessCtx))
	}
	_, err = session.WithTransaction(context, fn)
	return err
}

func (im *impl) slowLog(context ctx.Ctx, table domain.Table, action string, query interface{}, sort string) func() {
	start := timeNow()
	return func() {
		elapsedMs := time.Since(start).Milliseconds()
		im.met.BumpHistogram("time", float64(elapsedMs), "table", string(table), "action", action)
		if elapsedMs >= slowLogMs {
			im.met.BumpSum("slowlog", 1, "table", string(table), "action", action)
			context.WithFields(log.Fields{
				"table":      table,
				"action":     action,
				"startTime":  start.Unix(),
				"durationMs": elapsedMs,
				"query":      query,
				"sort":       sort,
			}).Warn("mongo slowlog")
		}
	}
}
