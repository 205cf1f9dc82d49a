package ratelimit

import (
	"time"

	"coach-gateway/middleware/ratelimit/domain"
)

// Políticas das rotas protegidas da API do coach. Cada uma tem seu bucket,
// então a mesma chave de cliente nunca colide entre rotas.
var (
	AuthPolicy = domain.Policy{
		Bucket:  "rl:auth",
		Window:  15 * time.Minute,
		Max:     20,
		Message: "Too many authentication attempts. Try again later.",
	}

	InterviewPolicy = domain.Policy{
		Bucket:  "rl:interview",
		Window:  time.Minute,
		Max:     30,
		Message: "Too many interview requests. Please slow down.",
	}

	FeedbackPolicy = domain.Policy{
		Bucket:  "rl:feedback",
		Window:  time.Minute,
		Max:     25,
		Message: "Too many feedback requests. Please slow down.",
	}

	ResumePolicy = domain.Policy{
		Bucket:  "rl:resume",
		Window:  5 * time.Minute,
		Max:     10,
		Message: "Too many resume upload attempts. Please wait and try again.",
	}
)

func Presets() []domain.Policy {
	return []domain.Policy{AuthPolicy, InterviewPolicy, FeedbackPolicy, ResumePolicy}
}
