package transformers

import "github.com/Labs64/labs64.io-auditflow/common/plugin"

// Register adds every built-in transformer to the registry. Identifiers are
// the lookup keys used verbatim in /transform/{transformerId}.
func Register(r *plugin.Registry[plugin.Transformer]) {
	r.Register("audit_opensearch", AuditOpenSearch{})
	r.Register("audit_loki", AuditLoki{})
	r.Register("user", UserOrder{})
}
