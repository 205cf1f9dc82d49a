// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryCounterStore: janela fixa em memória com varredura periódica
//   - RESTCounterStore: Redis via REST (/multi-exec) com resty + gjson
//   - RedisCounterStore: Redis nativo com MULTI/EXEC (go-redis)
//   - NewCounterStore: escolhe um dos três a partir da configuração
//   - Memory/RedisStatsStore: estatísticas de decisão
//   - ChanPool: semáforo simples para limite de concorrência
//   - TrustedProxies: blocos de IP cujo X-Forwarded-For é aceito
package infra
