package ratelimit

// tokenBucketScript refills and charges one bucket atomically.
//
//	KEYS[1] bucket hash (fields: images, refilled_at)
//	ARGV    capacity, images refilled per ms, now ms, batch cost, ttl ms
//
// It returns {admitted, images left, retry after ms}.
const tokenBucketScript = `
local bucket = KEYS[1]
local capacity = tonumber(ARGV[1])
local per_ms = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local ttl_ms = tonumber(ARGV[5])

local state = redis.call("HMGET", bucket, "images", "refilled_at")
local images = tonumber(state[1]) or capacity
local refilled_at = tonumber(state[2]) or now_ms

images = math.min(capacity, images + math.max(0, now_ms - refilled_at) * per_ms)

local admitted = 0
local wait_ms = 0
if images >= cost then
  images = images - cost
  admitted = 1
else
  wait_ms = math.ceil((cost - images) / per_ms)
end

redis.call("HSET", bucket, "images", images, "refilled_at", now_ms)
redis.call("PEXPIRE", bucket, ttl_ms)

return {admitted, math.floor(images), wait_ms}
`
