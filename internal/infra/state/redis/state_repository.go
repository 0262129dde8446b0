package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"clov-canvas/internal/domain"
	"clov-canvas/internal/repository"
)

const (
	livenessValue = "active"
	scanBatchSize = 100
	// Non-liveness keys outlive the liveness key by this much so that a
	// missed expiration notification cannot leak them forever.
	orphanGrace = 5 * time.Minute
)

// Writes to an existing room go through these scripts so that a message
// arriving after expiry cannot recreate keys for a dead room. Each write
// also pins the key's expiry to the liveness TTL plus orphanGrace.
var (
	// The client must also still have a nickname entry, so a late write
	// from someone who left cannot bring them back.
	guardedStateHSet = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl == -2 then return 0 end
if redis.call('HEXISTS', KEYS[3], ARGV[1]) == 0 then return -1 end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
if ttl > 0 then redis.call('PEXPIRE', KEYS[2], ttl + tonumber(ARGV[3])) end
return 1
`)

	guardedSet = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl == -2 then return 0 end
redis.call('SET', KEYS[2], ARGV[1])
if ttl > 0 then redis.call('PEXPIRE', KEYS[2], ttl + tonumber(ARGV[2])) end
return 1
`)

	swapHostScript = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl == -2 then return -1 end
if redis.call('GET', KEYS[2]) ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2])
if ttl > 0 then redis.call('PEXPIRE', KEYS[2], ttl + tonumber(ARGV[3])) end
return 1
`)
)

// RedisStateRepository is the Redis implementation of StateRepository.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

var _ repository.StateRepository = (*RedisStateRepository)(nil)

// NewRedisStateRepository creates the repository. keyPrefix may be empty.
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisStateRepository) livenessKey(roomCode string) string {
	return r.keyPrefix + roomCode
}

func (r *RedisStateRepository) hostKey(roomCode string) string {
	return fmt.Sprintf("%s%s:host", r.keyPrefix, roomCode)
}

func (r *RedisStateRepository) nicknameKey(roomCode string) string {
	return fmt.Sprintf("%s%s:nickname", r.keyPrefix, roomCode)
}

func (r *RedisStateRepository) stateKey(roomCode string) string {
	return fmt.Sprintf("%scanvas:%s:state", r.keyPrefix, roomCode)
}

func (r *RedisStateRepository) backgroundKey(roomCode string) string {
	return fmt.Sprintf("%scanvas:%s:background", r.keyPrefix, roomCode)
}

// dataKeys are all room keys except the liveness key.
func (r *RedisStateRepository) dataKeys(roomCode string) []string {
	return []string{
		r.hostKey(roomCode),
		r.nicknameKey(roomCode),
		r.stateKey(roomCode),
		r.backgroundKey(roomCode),
	}
}

// RoomCodeFromKey implements StateRepository.
func (r *RedisStateRepository) RoomCodeFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, r.keyPrefix) {
		return "", false
	}
	code := strings.TrimPrefix(key, r.keyPrefix)
	if !domain.IsRoomCode(code) {
		return "", false
	}
	return code, true
}

// --- Lifecycle ---

// CreateRoom implements StateRepository. Leftover data keys of an earlier
// room with the same code are dropped inside the same transaction.
func (r *RedisStateRepository) CreateRoom(ctx context.Context, room repository.NewRoomState) error {
	ttl := room.TTL
	if ttl <= 0 {
		ttl = domain.DefaultRoomTTL
	}
	stateJSON, err := json.Marshal(room.State.Normalize())
	if err != nil {
		return fmt.Errorf("redis: failed to marshal initial state for room %s: %w", room.RoomCode, err)
	}
	var bgJSON []byte
	if room.Background != nil {
		if bgJSON, err = json.Marshal(room.Background); err != nil {
			return fmt.Errorf("redis: failed to marshal background for room %s: %w", room.RoomCode, err)
		}
	}

	liveKey := r.livenessKey(room.RoomCode)
	dataTTL := ttl + orphanGrace

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, liveKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return repository.ErrDuplicateEntry
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.dataKeys(room.RoomCode)...)
			pipe.HSet(ctx, r.nicknameKey(room.RoomCode), room.HostID, room.HostNickname)
			pipe.Expire(ctx, r.nicknameKey(room.RoomCode), dataTTL)
			pipe.HSet(ctx, r.stateKey(room.RoomCode), room.HostID, stateJSON)
			pipe.Expire(ctx, r.stateKey(room.RoomCode), dataTTL)
			pipe.Set(ctx, r.hostKey(room.RoomCode), room.HostID, dataTTL)
			if bgJSON != nil {
				pipe.Set(ctx, r.backgroundKey(room.RoomCode), bgJSON, dataTTL)
			}
			// Liveness last: readers only consider the room open once it exists.
			pipe.Set(ctx, liveKey, livenessValue, ttl)
			return nil
		})
		return err
	}

	err = r.client.Watch(ctx, txf, liveKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicateEntry), errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("redis: room %s is already live: %w", room.RoomCode, repository.ErrDuplicateEntry)
	default:
		return fmt.Errorf("redis: failed to create room %s: %w", room.RoomCode, err)
	}
}

// JoinRoom implements StateRepository.
func (r *RedisStateRepository) JoinRoom(ctx context.Context, roomCode, clientID, nickname string, state domain.CanvasState) error {
	stateJSON, err := json.Marshal(state.Normalize())
	if err != nil {
		return fmt.Errorf("redis: failed to marshal initial state for %s in room %s: %w", clientID, roomCode, err)
	}
	liveKey := r.livenessKey(roomCode)

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, liveKey).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrRoomNotLive
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.nicknameKey(roomCode), clientID, nickname)
			pipe.HSet(ctx, r.stateKey(roomCode), clientID, stateJSON)
			return nil
		})
		return err
	}

	err = r.client.Watch(ctx, txf, liveKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRoomNotLive), errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("redis: cannot join room %s: %w", roomCode, repository.ErrRoomNotLive)
	default:
		return fmt.Errorf("redis: failed to join room %s for %s: %w", roomCode, clientID, err)
	}
}

// ExistsRoom implements StateRepository.
func (r *RedisStateRepository) ExistsRoom(ctx context.Context, roomCode string) (bool, error) {
	n, err := r.client.Exists(ctx, r.livenessKey(roomCode)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to check liveness of room %s: %w", roomCode, err)
	}
	return n > 0, nil
}

// DeleteRoom implements StateRepository.
func (r *RedisStateRepository) DeleteRoom(ctx context.Context, roomCode string) error {
	keys := append([]string{r.livenessKey(roomCode)}, r.dataKeys(roomCode)...)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete room %s: %w", roomCode, err)
	}
	return nil
}

// DeleteParticipant implements StateRepository.
func (r *RedisStateRepository) DeleteParticipant(ctx context.Context, roomCode, clientID string) error {
	pipe := r.client.Pipeline()
	pipe.HDel(ctx, r.stateKey(roomCode), clientID)
	pipe.HDel(ctx, r.nicknameKey(roomCode), clientID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to delete participant %s from room %s: %w", clientID, roomCode, err)
	}
	return nil
}

// ListLiveRoomCodes implements StateRepository.
func (r *RedisStateRepository) ListLiveRoomCodes(ctx context.Context) ([]string, error) {
	pattern := escapeGlob(r.keyPrefix) + strings.Repeat("[A-Za-z0-9]", domain.RoomCodeLength)
	seen := make(map[string]struct{})
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: failed to scan live rooms (cursor %d): %w", cursor, err)
		}
		for _, key := range keys {
			if code, ok := r.RoomCodeFromKey(key); ok {
				seen[code] = struct{}{}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// --- Participants ---

// CountParticipants implements StateRepository.
func (r *RedisStateRepository) CountParticipants(ctx context.Context, roomCode string) (int64, error) {
	n, err := r.client.HLen(ctx, r.stateKey(roomCode)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: failed to count participants of room %s: %w", roomCode, err)
	}
	return n, nil
}

// ListParticipants implements StateRepository.
func (r *RedisStateRepository) ListParticipants(ctx context.Context, roomCode string) ([]string, error) {
	ids, err := r.client.HKeys(ctx, r.stateKey(roomCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to list participants of room %s: %w", roomCode, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetNickname implements StateRepository.
func (r *RedisStateRepository) GetNickname(ctx context.Context, roomCode, clientID string) (string, error) {
	nickname, err := r.client.HGet(ctx, r.nicknameKey(roomCode), clientID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis: failed to get nickname of %s in room %s: %w", clientID, roomCode, err)
	}
	return nickname, nil
}

// GetNicknames implements StateRepository.
func (r *RedisStateRepository) GetNicknames(ctx context.Context, roomCode string) (map[string]string, error) {
	nicknames, err := r.client.HGetAll(ctx, r.nicknameKey(roomCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to get nicknames of room %s: %w", roomCode, err)
	}
	return nicknames, nil
}

// --- Host ---

// GetHost implements StateRepository.
func (r *RedisStateRepository) GetHost(ctx context.Context, roomCode string) (string, error) {
	host, err := r.client.Get(ctx, r.hostKey(roomCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis: failed to get host of room %s: %w", roomCode, err)
	}
	return host, nil
}

// IsHost implements StateRepository.
func (r *RedisStateRepository) IsHost(ctx context.Context, roomCode, clientID string) (bool, error) {
	host, err := r.GetHost(ctx, roomCode)
	if err != nil {
		return false, err
	}
	return host != "" && host == clientID, nil
}

// SwapHost implements StateRepository.
func (r *RedisStateRepository) SwapHost(ctx context.Context, roomCode, fromClientID, toClientID string) (bool, error) {
	keys := []string{r.livenessKey(roomCode), r.hostKey(roomCode)}
	res, err := swapHostScript.Run(ctx, r.client, keys, fromClientID, toClientID, orphanGrace.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis: failed to swap host of room %s: %w", roomCode, err)
	}
	switch res {
	case -1:
		return false, fmt.Errorf("redis: cannot swap host of room %s: %w", roomCode, repository.ErrRoomNotLive)
	case 0:
		return false, nil
	default:
		return true, nil
	}
}

// --- Canvas ---

// GetCanvasState implements StateRepository.
func (r *RedisStateRepository) GetCanvasState(ctx context.Context, roomCode, clientID string) (*domain.CanvasState, error) {
	raw, err := r.client.HGet(ctx, r.stateKey(roomCode), clientID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis: failed to get canvas state of %s in room %s: %w", clientID, roomCode, err)
	}
	var state domain.CanvasState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("redis: failed to decode canvas state of %s in room %s: %w", clientID, roomCode, err)
	}
	return &state, nil
}

// SaveCanvasState implements StateRepository. Rotation is normalized before
// the write. Clients without a nickname entry get ErrNotParticipant.
func (r *RedisStateRepository) SaveCanvasState(ctx context.Context, roomCode, clientID string, state domain.CanvasState) error {
	stateJSON, err := json.Marshal(state.Normalize())
	if err != nil {
		return fmt.Errorf("redis: failed to marshal canvas state of %s: %w", clientID, err)
	}
	keys := []string{r.livenessKey(roomCode), r.stateKey(roomCode), r.nicknameKey(roomCode)}
	res, err := guardedStateHSet.Run(ctx, r.client, keys, clientID, stateJSON, orphanGrace.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis: failed to save canvas state of %s in room %s: %w", clientID, roomCode, err)
	}
	switch res {
	case 0:
		return fmt.Errorf("redis: cannot save canvas state in room %s: %w", roomCode, repository.ErrRoomNotLive)
	case -1:
		return fmt.Errorf("redis: cannot save canvas state of %s in room %s: %w", clientID, roomCode, repository.ErrNotParticipant)
	}
	return nil
}

// GetBackground implements StateRepository.
func (r *RedisStateRepository) GetBackground(ctx context.Context, roomCode string) (*domain.BackgroundDescriptor, error) {
	raw, err := r.client.Get(ctx, r.backgroundKey(roomCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: failed to get background of room %s: %w", roomCode, err)
	}
	var bg domain.BackgroundDescriptor
	if err := json.Unmarshal(raw, &bg); err != nil {
		return nil, fmt.Errorf("redis: failed to decode background of room %s: %w", roomCode, err)
	}
	return &bg, nil
}

// SaveBackground implements StateRepository.
func (r *RedisStateRepository) SaveBackground(ctx context.Context, roomCode string, bg domain.BackgroundDescriptor) error {
	bgJSON, err := json.Marshal(bg)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal background for room %s: %w", roomCode, err)
	}
	keys := []string{r.livenessKey(roomCode), r.backgroundKey(roomCode)}
	ok, err := guardedSet.Run(ctx, r.client, keys, bgJSON, orphanGrace.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis: failed to save background of room %s: %w", roomCode, err)
	}
	if ok == 0 {
		return fmt.Errorf("redis: cannot save background in room %s: %w", roomCode, repository.ErrRoomNotLive)
	}
	return nil
}

// GetFullState implements StateRepository.
func (r *RedisStateRepository) GetFullState(ctx context.Context, roomCode string) (*domain.FullCanvasState, error) {
	pipe := r.client.Pipeline()
	statesCmd := pipe.HGetAll(ctx, r.stateKey(roomCode))
	nicknamesCmd := pipe.HGetAll(ctx, r.nicknameKey(roomCode))
	hostCmd := pipe.Get(ctx, r.hostKey(roomCode))
	bgCmd := pipe.Get(ctx, r.backgroundKey(roomCode))
	// Exec reports only the first failed command, so each reply is checked
	// on its own. A missing host or background is not an error.
	_, _ = pipe.Exec(ctx)
	for _, cmd := range []redis.Cmder{statesCmd, nicknamesCmd, hostCmd, bgCmd} {
		if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis: failed to load full state of room %s: %w", roomCode, err)
		}
	}

	full := &domain.FullCanvasState{
		RoomCode:     roomCode,
		Participants: []domain.ParticipantCanvas{},
	}

	if raw, err := bgCmd.Bytes(); err == nil {
		var bg domain.BackgroundDescriptor
		if err := json.Unmarshal(raw, &bg); err != nil {
			logrus.WithError(err).WithField("room_code", roomCode).Warn("redis: ignoring undecodable background")
		} else {
			full.Background = &bg
		}
	}

	host, _ := hostCmd.Result() // missing host means nobody is flagged
	nicknames := nicknamesCmd.Val()
	for clientID, raw := range statesCmd.Val() {
		var state domain.CanvasState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"room_code": roomCode, "client_id": clientID}).
				Warn("redis: skipping undecodable canvas state")
			continue
		}
		full.Participants = append(full.Participants,
			domain.NewParticipantCanvas(clientID, nicknames[clientID], host != "" && clientID == host, state))
	}
	sort.Slice(full.Participants, func(i, j int) bool {
		return full.Participants[i].ClientID < full.Participants[j].ClientID
	})
	return full, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
