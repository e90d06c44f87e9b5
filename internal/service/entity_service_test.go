package service

import (
	"Birdfeed/internal/model"
	"context"
	"errors"
	"testing"
)

func TestFindMissing(t *testing.T) {
	tweetRepo := newFakeTweetRepo()
	entityRepo := newFakeEntityRepo()
	tweet := &model.Tweet{ID: 1, TweetID: "100", Text: "#go update from @alice https://t.co/abc"}
	tweetRepo.tweets["100"] = tweet
	entityRepo.entities[1] = []*model.TweetEntity{
		{TweetRef: 1, Type: model.EntityHashtag, Text: "go"},
	}

	svc := NewEntityService(tweetRepo, entityRepo)
	missing, err := svc.FindMissing(context.Background(), "100")
	if err != nil {
		t.Fatal(err)
	}

	if len(missing) != 2 {
		t.Fatalf("missing = %+v, want mention and url", missing)
	}
	byType := map[model.EntityType]model.TweetEntity{}
	for _, e := range missing {
		byType[e.Type] = e
	}
	if byType[model.EntityMention].Text != "alice" {
		t.Errorf("mention = %+v", byType[model.EntityMention])
	}
	if byType[model.EntityURL].Text != "https://t.co/abc" {
		t.Errorf("url = %+v", byType[model.EntityURL])
	}
	for _, e := range missing {
		if e.TweetRef != 1 {
			t.Errorf("entity %s missing tweet ref", e.Type)
		}
	}
}

func TestFindMissingIgnoresOffsets(t *testing.T) {
	tweetRepo := newFakeTweetRepo()
	entityRepo := newFakeEntityRepo()
	// 存量实体的位置元数据过时也不算缺失，同一性只看 (type, text)
	tweetRepo.tweets["100"] = &model.Tweet{ID: 1, TweetID: "100", Text: "moved around #go"}
	stale := &model.TweetEntity{TweetRef: 1, Type: model.EntityHashtag, Text: "go"}
	_ = stale.SetMetadata(model.TextSpanMetadata{Start: 0, End: 3})
	entityRepo.entities[1] = []*model.TweetEntity{stale}

	svc := NewEntityService(tweetRepo, entityRepo)
	missing, err := svc.FindMissing(context.Background(), "100")
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 0 {
		t.Errorf("offset drift reported as missing: %+v", missing)
	}
}

func TestFindMissingDedupesRepeats(t *testing.T) {
	tweetRepo := newFakeTweetRepo()
	tweetRepo.tweets["100"] = &model.Tweet{ID: 1, TweetID: "100", Text: "#go and #go again"}

	svc := NewEntityService(tweetRepo, newFakeEntityRepo())
	missing, err := svc.FindMissing(context.Background(), "100")
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 {
		t.Errorf("repeated hashtag not merged: %+v", missing)
	}
}

func TestFindMissingNotFound(t *testing.T) {
	svc := NewEntityService(newFakeTweetRepo(), newFakeEntityRepo())
	if _, err := svc.FindMissing(context.Background(), "nope"); !errors.Is(err, ErrTweetNotFound) {
		t.Fatalf("err = %v, want ErrTweetNotFound", err)
	}
}

func TestCreateMissingIdempotent(t *testing.T) {
	entityRepo := newFakeEntityRepo()
	entityRepo.entities[1] = []*model.TweetEntity{
		{TweetRef: 1, Type: model.EntityHashtag, Text: "go"},
	}
	svc := NewEntityService(newFakeTweetRepo(), entityRepo)

	batch := []model.TweetEntity{
		{Type: model.EntityHashtag, Text: "go"},
		{Type: model.EntityMention, Text: "alice"},
	}
	created, skipped, failed := svc.CreateMissing(context.Background(), 1, batch)

	if created != 1 || skipped != 1 || failed != 0 {
		t.Errorf("created/skipped/failed = %d/%d/%d, want 1/1/0", created, skipped, failed)
	}
	if len(entityRepo.created) != 1 || entityRepo.created[0].Text != "alice" {
		t.Errorf("created entities = %+v", entityRepo.created)
	}
}

func TestCreateMissingInvalidMetadataCleared(t *testing.T) {
	entityRepo := newFakeEntityRepo()
	svc := NewEntityService(newFakeTweetRepo(), entityRepo)

	bad := model.TweetEntity{Type: model.EntityHashtag, Text: "go", Metadata: []byte("{broken")}
	created, _, failed := svc.CreateMissing(context.Background(), 1, []model.TweetEntity{bad})

	if created != 1 || failed != 0 {
		t.Fatalf("created/failed = %d/%d, want 1/0", created, failed)
	}
	if entityRepo.created[0].Metadata != nil {
		t.Errorf("broken metadata not cleared: %s", entityRepo.created[0].Metadata)
	}
}

func TestCreateMissingPartialFailure(t *testing.T) {
	entityRepo := newFakeEntityRepo()
	entityRepo.createErr = errors.New("insert failed")
	svc := NewEntityService(newFakeTweetRepo(), entityRepo)

	created, skipped, failed := svc.CreateMissing(context.Background(), 1, []model.TweetEntity{
		{Type: model.EntityHashtag, Text: "go"},
		{Type: model.EntityMention, Text: "alice"},
	})

	// 单条失败计数后继续，不终止整批
	if created != 0 || skipped != 0 || failed != 2 {
		t.Errorf("created/skipped/failed = %d/%d/%d, want 0/0/2", created, skipped, failed)
	}
}

func TestReconcileDryRun(t *testing.T) {
	tweetRepo := newFakeTweetRepo()
	entityRepo := newFakeEntityRepo()
	tweetRepo.recent = []*model.Tweet{
		{ID: 1, TweetID: "100", Text: "#go news"},
		{ID: 2, TweetID: "200", Text: "plain text"},
	}
	svc := NewEntityService(tweetRepo, entityRepo)

	summary, err := svc.Reconcile(context.Background(), ReconcileOptions{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}

	if summary.Processed != 2 || summary.MissingTotal != 1 || summary.CreatedTotal != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(entityRepo.created) != 0 {
		t.Errorf("dry run wrote entities: %+v", entityRepo.created)
	}
}

func TestReconcileTargeted(t *testing.T) {
	tweetRepo := newFakeTweetRepo()
	entityRepo := newFakeEntityRepo()
	tweetRepo.tweets["100"] = &model.Tweet{ID: 1, TweetID: "100", Text: "ping @bob"}
	svc := NewEntityService(tweetRepo, entityRepo)

	summary, err := svc.Reconcile(context.Background(), ReconcileOptions{
		TargetIDs: []string{"100", "missing-id"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// 未缓存的目标跳过，不报错
	if summary.Processed != 1 || summary.CreatedTotal != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if len(entityRepo.created) != 1 || entityRepo.created[0].Text != "bob" {
		t.Errorf("created = %+v", entityRepo.created)
	}
}
