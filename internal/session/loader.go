package session

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/profile-session/internal/apiclient"
	"github.com/magabrotheeeer/profile-session/internal/lib/metrics"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/models"
)

// storeOp отложенная запись в хранилище, применяется вместе с результатом загрузки.
type storeOp int

const (
	opClearToken storeOp = 1 << iota
	opClearProfile
)

type loadResult struct {
	epoch   uint64
	state   State
	ops     storeOp
	outcome string
}

// Load восстанавливает состояние из хранилища токенов и бэкенда.
//
// Одновременные вызовы в одной эпохе разделяют одну загрузку. Загрузка не
// отменяется контекстом вызывающего: отмена только прекращает ожидание, и тогда
// возвращается ошибка контекста. Ошибки проверки личности наружу не выходят,
// сессия просто становится неаутентифицированной. Если во время загрузки
// сработал мутатор, её результат отбрасывается и Load ждёт загрузку новой эпохи.
func (s *Session) Load(ctx context.Context) (State, error) {
	s.mu.RLock()
	epoch := s.state.Epoch
	s.mu.RUnlock()

	ch := s.group.DoChan(s.epochKey(epoch), func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		res := s.load(loadCtx, epoch)
		st, applied := s.apply(loadCtx, res)
		if applied && res.outcome == metrics.LoadInvalid {
			s.notify(loadCtx, Event{Type: EventSessionInvalidated, Epoch: res.epoch})
		}
		return st, nil
	})

	select {
	case r := <-ch:
		st := r.Val.(State)
		if st.Epoch != epoch {
			// результат устарел: присоединяемся к загрузке новой эпохи
			return s.Load(ctx)
		}
		return st, nil
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

func (s *Session) load(ctx context.Context, epoch uint64) loadResult {
	const op = "session.load"
	log := s.log.With(slog.String("op", op), slog.Uint64("epoch", epoch))

	token := s.AccessToken(ctx)
	if token == "" {
		log.Debug("no token persisted")
		return loadResult{epoch: epoch, state: unauthenticated(epoch), outcome: metrics.LoadNoToken}
	}

	user, err := s.api.Me(ctx, token)
	if err != nil {
		log.Info("identity check failed, resetting session", slog.String("reason", ErrSessionInvalid.Error()), sl.Err(err))
		return loadResult{
			epoch:   epoch,
			state:   unauthenticated(epoch),
			ops:     opClearToken | opClearProfile,
			outcome: metrics.LoadInvalid,
		}
	}

	res := loadResult{epoch: epoch, state: authenticated(epoch, user, nil), outcome: metrics.LoadAuthenticated}

	stored, err := s.store.ProfileID(ctx)
	if err != nil {
		log.Warn("token store read failed, treating as no profile", sl.Err(err))
		return res
	}
	if stored == "" {
		return res
	}

	id, ok := models.ParseProfileKey(stored)
	if !ok {
		log.Info("discarding malformed persisted profile", slog.String("reason", ErrProfileResolution.Error()))
		metrics.ProfileResolutions.WithLabelValues("malformed").Inc()
		res.ops |= opClearProfile
		return res
	}

	// список профилей запрашивается только после подтверждения личности
	profiles, err := s.api.Profiles(ctx, token)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			log.Info("profile list rejected token, resetting session", sl.Err(err))
			return loadResult{
				epoch:   epoch,
				state:   unauthenticated(epoch),
				ops:     opClearToken | opClearProfile,
				outcome: metrics.LoadInvalid,
			}
		}
		log.Warn("failed to fetch profiles, leaving profile unselected", sl.Err(err))
		metrics.ProfileResolutions.WithLabelValues("fetch_failed").Inc()
		return res
	}

	profile, found := models.FindProfile(profiles, id)
	if !found {
		log.Info("persisted profile not found, discarding",
			slog.Int64("profile_id", id),
			slog.String("reason", ErrProfileResolution.Error()))
		metrics.ProfileResolutions.WithLabelValues("not_found").Inc()
		res.ops |= opClearProfile
		return res
	}

	metrics.ProfileResolutions.WithLabelValues("resolved").Inc()
	res.state.ActiveProfile = profile
	return res
}

// apply применяет результат загрузки, если за время загрузки не было мутаторов.
func (s *Session) apply(ctx context.Context, res loadResult) (State, bool) {
	const op = "session.apply"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Epoch != res.epoch {
		s.log.Debug("discarding stale load result",
			slog.String("op", op),
			slog.Uint64("load_epoch", res.epoch),
			slog.Uint64("current_epoch", s.state.Epoch))
		metrics.SessionLoads.WithLabelValues(metrics.LoadStale).Inc()
		return s.state.clone(), false
	}

	if res.ops&opClearToken != 0 {
		if err := s.store.ClearToken(ctx); err != nil {
			s.log.Warn("failed to clear token", slog.String("op", op), sl.Err(err))
		}
	}
	if res.ops&opClearProfile != 0 {
		if err := s.store.SetProfileID(ctx, ""); err != nil {
			s.log.Warn("failed to clear persisted profile", slog.String("op", op), sl.Err(err))
		}
	}

	s.state = res.state
	s.markLoadedLocked()
	metrics.SessionLoads.WithLabelValues(res.outcome).Inc()
	return s.state.clone(), true
}
