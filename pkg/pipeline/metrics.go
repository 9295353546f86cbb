package pipeline

// Metrics receives counters and gauges from the processing pipeline.
// Implementations must be safe for concurrent use. A nil Metrics disables
// instrumentation.
type Metrics interface {
	// RecordProcessed counts a message that completed the pipeline and
	// reached the buffer, labeled by message type.
	RecordProcessed(messageType string)

	// RecordValidationFailure counts a message rejected by validation.
	RecordValidationFailure()

	// RecordRuleMatch counts a rule match, labeled by rule ID.
	RecordRuleMatch(ruleID string)

	// RecordActionDispatch counts a handler invocation, labeled by action.
	RecordActionDispatch(action string)

	// RecordDNSLookup counts a reverse DNS lookup by outcome: "cache_hit",
	// "resolved" or "miss".
	RecordDNSLookup(outcome string)

	// RecordQueueDrop counts a message dropped on enqueue because the
	// queue was full.
	RecordQueueDrop()

	// SetQueueDepth reports the current queue depth.
	SetQueueDepth(depth int)

	// RecordBatchFlush counts messages persisted by a batch write.
	RecordBatchFlush(count int)
}
