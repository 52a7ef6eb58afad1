package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mustaqeer/mustaqeer-api/internal/models"
)

func newRolloverFixture(t *testing.T) (*gorm.DB, *fakeClock, *EpisodeService, *ProgressService, *RolloverService) {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock()
	episodes := NewEpisodeService(db, clock)
	ledger := NewProgressService(db, clock)
	rollover := NewRolloverService(db, clock, episodes, NewNotifier(db, nil))
	return db, clock, episodes, ledger, rollover
}

func TestRolloverAdvancesQuota(t *testing.T) {
	db, clock, episodes, ledger, rollover := newRolloverFixture(t)

	owner := createUser(t, db, "owner")
	episode, err := episodes.Create(owner, 2, "Two juz a day cohort for the rollover test run")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	seeded, err := ledger.GetOrCreate(owner)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := rollover.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	var rolled models.Progress
	if err := db.First(&rolled, "id = ?", seeded.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if rolled.JuzRequired != seeded.JuzRequired+episode.Juz {
		t.Errorf("juzRequired = %d, want %d", rolled.JuzRequired, seeded.JuzRequired+episode.Juz)
	}
	if !rolled.SubmissionTime.Equal(clock.Now()) {
		t.Errorf("submissionTime = %v, want %v", rolled.SubmissionTime, clock.Now())
	}

	var advanced models.Episode
	if err := db.First(&advanced, "id = ?", episode.ID).Error; err != nil {
		t.Fatalf("reload episode: %v", err)
	}
	if advanced.Progress != episode.Juz {
		t.Errorf("episode progress = %d, want %d", advanced.Progress, episode.Juz)
	}
}

func TestRolloverEvictsStragglers(t *testing.T) {
	db, _, episodes, ledger, rollover := newRolloverFixture(t)

	owner := createUser(t, db, "owner")
	episode, err := episodes.Create(owner, 2, "Two juz a day cohort for the eviction test run")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	straggler := createUser(t, db, "straggler")
	if _, err := episodes.Join(straggler, episode.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	ownerRow, err := ledger.GetOrCreate(owner)
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	stragglerRow, err := ledger.GetOrCreate(straggler)
	if err != nil {
		t.Fatalf("seed straggler: %v", err)
	}

	// The straggler is one rollover away from the eviction limit, the owner
	// stays comfortably under it.
	if err := db.Model(&models.Progress{}).Where("id = ?", stragglerRow.ID).
		Updates(map[string]interface{}{"juz_required": EvictionLimit - episode.Juz, "juz_readed": 1, "xp": 10}).Error; err != nil {
		t.Fatalf("pin straggler: %v", err)
	}
	if err := db.Model(&models.Progress{}).Where("id = ?", ownerRow.ID).
		Update("juz_required", 0).Error; err != nil {
		t.Fatalf("pin owner: %v", err)
	}

	if err := rollover.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	var dropped models.Progress
	if err := db.First(&dropped, "id = ?", stragglerRow.ID).Error; err != nil {
		t.Fatalf("reload straggler: %v", err)
	}
	if dropped.State != models.ProgressDropped {
		t.Errorf("state = %s, want dropped", dropped.State)
	}
	if dropped.JuzRequired != 0 || dropped.JuzReaded != 0 || dropped.Remained != 0 || dropped.XP != 0 {
		t.Errorf("counters not zeroed: %+v", dropped)
	}

	// The membership is gone, the others remain
	var member models.Member
	err = db.Where("user_id = ?", straggler).First(&member).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("straggler membership lookup = %v, want ErrRecordNotFound", err)
	}
	if got := memberCount(t, db, episode.ID); got != 1 {
		t.Errorf("member count = %d, want 1", got)
	}

	// The evicted user was told about it
	var notif models.Notification
	if err := db.Where("user_id = ? AND type = ?", straggler, NotifEvicted).First(&notif).Error; err != nil {
		t.Errorf("eviction notification: %v", err)
	}

	// The surviving row rolled forward normally
	var survivor models.Progress
	if err := db.First(&survivor, "id = ?", ownerRow.ID).Error; err != nil {
		t.Fatalf("reload owner: %v", err)
	}
	if survivor.State == models.ProgressDropped {
		t.Error("owner dropped despite being under the limit")
	}
	if survivor.JuzRequired != episode.Juz {
		t.Errorf("owner juzRequired = %d, want %d", survivor.JuzRequired, episode.Juz)
	}
}

func TestRolloverEvictingLastMemberDeletesEpisode(t *testing.T) {
	db, _, episodes, ledger, rollover := newRolloverFixture(t)

	owner := createUser(t, db, "owner")
	episode, err := episodes.Create(owner, 3, "Three juz a day cohort heading for deletion")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	row, err := ledger.GetOrCreate(owner)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Model(&models.Progress{}).Where("id = ?", row.ID).
		Update("juz_required", EvictionLimit).Error; err != nil {
		t.Fatalf("pin: %v", err)
	}

	if err := rollover.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	var gone models.Episode
	if err := db.First(&gone, "id = ?", episode.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("episode lookup = %v, want ErrRecordNotFound (deleted with last member)", err)
	}
}

func TestRolloverEvictionReopensFullEpisode(t *testing.T) {
	db, _, episodes, ledger, rollover := newRolloverFixture(t)

	owner := createUser(t, db, "owner")
	episode, err := episodes.Create(owner, 2, "Cohort filled to capacity before one member lapses")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var evictee uuid.UUID
	for i := 2; i <= MaxMembers; i++ {
		userID := createUser(t, db, fmt.Sprintf("member%02d", i))
		if _, err := episodes.Join(userID, episode.ID); err != nil {
			t.Fatalf("join #%d: %v", i, err)
		}
		evictee = userID
	}

	var full models.Episode
	if err := db.First(&full, "id = ?", episode.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !full.IsFull {
		t.Fatalf("is_full = false after %d members", MaxMembers)
	}

	row, err := ledger.GetOrCreate(evictee)
	if err != nil {
		t.Fatalf("seed evictee: %v", err)
	}
	if err := db.Model(&models.Progress{}).Where("id = ?", row.ID).
		Update("juz_required", EvictionLimit-episode.Juz).Error; err != nil {
		t.Fatalf("pin evictee: %v", err)
	}

	if err := rollover.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// The eviction freed a seat; the flag must reflect that even though the
	// rollover also writes the episode's own counters afterwards.
	var reopened models.Episode
	if err := db.First(&reopened, "id = ?", episode.ID).Error; err != nil {
		t.Fatalf("reload after run: %v", err)
	}
	if reopened.IsFull {
		t.Error("is_full still true with a freed seat after eviction")
	}
	if got := memberCount(t, db, episode.ID); got != MaxMembers-1 {
		t.Errorf("member count = %d, want %d", got, MaxMembers-1)
	}

	replacement := createUser(t, db, "replacement")
	if _, err := episodes.Join(replacement, episode.ID); err != nil {
		t.Errorf("join after eviction freed a seat: %v", err)
	}
}

func TestRolloverKhatmah(t *testing.T) {
	db, _, episodes, ledger, rollover := newRolloverFixture(t)

	owner := createUser(t, db, "owner")
	episode, err := episodes.Create(owner, 4, "Four juz a day cohort approaching its khatmah")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	companion := createUser(t, db, "companion")
	if _, err := episodes.Join(companion, episode.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	row, err := ledger.GetOrCreate(owner)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Model(&models.Progress{}).Where("id = ?", row.ID).
		Update("juz_required", 0).Error; err != nil {
		t.Fatalf("pin owner quota: %v", err)
	}

	// 28 + 4 > 30: the next rollover completes the khatmah
	if err := db.Model(&models.Episode{}).Where("id = ?", episode.ID).Update("progress", 28).Error; err != nil {
		t.Fatalf("pin progress: %v", err)
	}

	var firedEpisode uuid.UUID
	var firedCount int
	rollover.OnKhatmah(func(episodeID uuid.UUID, khatmiCount int) {
		firedEpisode = episodeID
		firedCount = khatmiCount
	})

	if err := rollover.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	var finished models.Episode
	if err := db.First(&finished, "id = ?", episode.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if finished.KhatmiCount != 1 {
		t.Errorf("khatmiCount = %d, want 1", finished.KhatmiCount)
	}
	if finished.Progress != 0 {
		t.Errorf("progress = %d, want 0 (overflow dropped)", finished.Progress)
	}

	var notif models.Notification
	if err := db.Where("user_id = ? AND type = ?", companion, NotifKhatmah).First(&notif).Error; err != nil {
		t.Errorf("khatmah notification for companion: %v", err)
	}

	if firedEpisode != episode.ID || firedCount != 1 {
		t.Errorf("khatmah callback fired with (%s, %d), want (%s, 1)", firedEpisode, firedCount, episode.ID)
	}
}

func TestRolloverCoversEveryEpisode(t *testing.T) {
	db, _, episodes, ledger, rollover := newRolloverFixture(t)

	ownerA := createUser(t, db, "ownerA")
	episodeA, err := episodes.Create(ownerA, 1, "First of two cohorts rolled over in one pass")
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	ownerB := createUser(t, db, "ownerB")
	episodeB, err := episodes.Create(ownerB, 2, "Second of two cohorts rolled over in one pass")
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	if _, err := ledger.GetOrCreate(ownerA); err != nil {
		t.Fatalf("seed A: %v", err)
	}
	if _, err := ledger.GetOrCreate(ownerB); err != nil {
		t.Fatalf("seed B: %v", err)
	}

	if err := rollover.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, tc := range []struct {
		id   uuid.UUID
		want int
	}{
		{episodeA.ID, 1},
		{episodeB.ID, 2},
	} {
		var episode models.Episode
		if err := db.First(&episode, "id = ?", tc.id).Error; err != nil {
			t.Fatalf("reload %s: %v", tc.id, err)
		}
		if episode.Progress != tc.want {
			t.Errorf("episode %s progress = %d, want %d", tc.id, episode.Progress, tc.want)
		}
	}
}

func TestRolloverSkipsDroppedRows(t *testing.T) {
	db, _, episodes, ledger, rollover := newRolloverFixture(t)

	owner := createUser(t, db, "owner")
	episode, err := episodes.Create(owner, 2, "Cohort with an already dropped former member row")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A leftover dropped row from a former member
	former := createUser(t, db, "former")
	droppedRow := models.Progress{
		UserID:    former,
		EpisodeID: episode.ID,
		State:     models.ProgressDropped,
	}
	if err := db.Create(&droppedRow).Error; err != nil {
		t.Fatalf("create dropped row: %v", err)
	}
	if _, err := ledger.GetOrCreate(owner); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := rollover.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	var untouched models.Progress
	if err := db.First(&untouched, "id = ?", droppedRow.ID).Error; err != nil {
		t.Fatalf("reload dropped row: %v", err)
	}
	if untouched.JuzRequired != 0 || untouched.State != models.ProgressDropped {
		t.Errorf("dropped row was touched by rollover: %+v", untouched)
	}
}
