package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fitpulse/backend/config"
)

// Client Redis 客户端封装
// 用于 Token 黑名单、登录限流，以及集合变更事件的 pub/sub 广播
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 登录限流（滑动窗口）──

// CheckRateLimit 固定窗口计数限流；返回 true 表示放行
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(limit), nil
}

// ── 集合变更事件广播 ──
//
// 管理端写入（模板/区间/实例）与客户端预约写入成功后发布事件；
// 其他已打开的会话经 SSE 订阅，无需手动刷新即可感知变化。

const changeChannel = "fitpulse:changes"

// ChangeEvent 集合变更事件
type ChangeEvent struct {
	Collection string `json:"collection"` // 集合名（表名）
	Op         string `json:"op"`         // insert | update | delete
	ID         string `json:"id"`         // 受影响的行 ID
}

// PublishChange 发布集合变更事件
// 接收者为 nil 时静默跳过（Redis 降级运行场景），发布失败仅记日志不回传错误：
// 事件广播是尽力而为的通知，不应影响主写路径
func (c *Client) PublishChange(ctx context.Context, ev ChangeEvent) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := c.rdb.Publish(ctx, changeChannel, payload).Err(); err != nil {
		c.logger.Warn("发布变更事件失败",
			zap.String("collection", ev.Collection),
			zap.String("op", ev.Op),
			zap.Error(err),
		)
	}
}

// SubscribeChanges 订阅集合变更事件
// 返回事件通道与取消函数；ctx 结束或调用 cancel 后通道关闭
func (c *Client) SubscribeChanges(ctx context.Context) (<-chan ChangeEvent, func()) {
	sub := c.rdb.Subscribe(ctx, changeChannel)
	out := make(chan ChangeEvent, 16)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
