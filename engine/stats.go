package engine

import "time"

// MethodStats accumulates per-intrinsic statistics across a
// connection's lifetime, per spec §4.5.
type MethodStats struct {
	Count          int64
	ExceptionCount int64

	ServerTimeSum, ServerTimeMin, ServerTimeMax time.Duration
	ClientTimeSum, ClientTimeMin, ClientTimeMax time.Duration

	RequestLenSum, RequestLenMin, RequestLenMax int64
	ReplyLenSum, ReplyLenMin, ReplyLenMax       int64
}

func (s *MethodStats) observe(serverTime, clientTime time.Duration, requestLen, replyLen int, exception bool) {
	s.Count++
	if exception {
		s.ExceptionCount++
	}

	s.ServerTimeSum += serverTime
	s.ClientTimeSum += clientTime
	s.RequestLenSum += int64(requestLen)
	s.ReplyLenSum += int64(replyLen)

	if s.Count == 1 {
		s.ServerTimeMin, s.ServerTimeMax = serverTime, serverTime
		s.ClientTimeMin, s.ClientTimeMax = clientTime, clientTime
		s.RequestLenMin, s.RequestLenMax = int64(requestLen), int64(requestLen)
		s.ReplyLenMin, s.ReplyLenMax = int64(replyLen), int64(replyLen)
		return
	}
	if serverTime < s.ServerTimeMin {
		s.ServerTimeMin = serverTime
	}
	if serverTime > s.ServerTimeMax {
		s.ServerTimeMax = serverTime
	}
	if clientTime < s.ClientTimeMin {
		s.ClientTimeMin = clientTime
	}
	if clientTime > s.ClientTimeMax {
		s.ClientTimeMax = clientTime
	}
	if int64(requestLen) < s.RequestLenMin {
		s.RequestLenMin = int64(requestLen)
	}
	if int64(requestLen) > s.RequestLenMax {
		s.RequestLenMax = int64(requestLen)
	}
	if int64(replyLen) < s.ReplyLenMin {
		s.ReplyLenMin = int64(replyLen)
	}
	if int64(replyLen) > s.ReplyLenMax {
		s.ReplyLenMax = int64(replyLen)
	}
}

// Stats returns a snapshot of per-method statistics, keyed by
// intrinsic/extrinsic method name. The map is a copy; mutating it does
// not affect the connection's live counters.
func (c *Connection) Stats() map[string]MethodStats {
	out := make(map[string]MethodStats, len(c.stats))
	for k, v := range c.stats {
		out[k] = *v
	}
	return out
}

func (c *Connection) recordStats(method string, serverTime, clientTime time.Duration, requestLen, replyLen int, exception bool) {
	if !c.cfg.StatsEnabled {
		return
	}
	s, ok := c.stats[method]
	if !ok {
		s = &MethodStats{}
		c.stats[method] = s
	}
	s.observe(serverTime, clientTime, requestLen, replyLen, exception)
}
