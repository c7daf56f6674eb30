package contract

// InvoiceABI is the consolidated invoice contract interface. Invoice amounts
// are token base units; status values match chainvoice.InvoiceStatus.
const InvoiceABI = `[
  {"name":"createInvoice","type":"function","inputs":[{"name":"amount","type":"uint256"},{"name":"metadataHash","type":"string"}],"outputs":[{"name":"id","type":"uint256"}]},
  {"name":"payInvoice","type":"function","inputs":[{"name":"invoiceId","type":"uint256"}],"outputs":[]},
  {"name":"markFailed","type":"function","inputs":[{"name":"invoiceId","type":"uint256"}],"outputs":[]},
  {"name":"getInvoice","type":"function","stateMutability":"view","inputs":[{"name":"invoiceId","type":"uint256"}],"outputs":[{"name":"id","type":"uint256"},{"name":"creator","type":"address"},{"name":"payer","type":"address"},{"name":"amount","type":"uint256"},{"name":"status","type":"uint8"},{"name":"metadataHash","type":"string"},{"name":"createdAt","type":"uint256"},{"name":"paidAt","type":"uint256"}]},
  {"name":"invoicesOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"ids","type":"uint256[]"}]},
  {"name":"nextInvoiceId","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"id","type":"uint256"}]},
  {"name":"InvoiceCreated","type":"event","inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"creator","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"name":"InvoicePaid","type":"event","inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"payer","type":"address","indexed":true}]}
]`

// ERC20ABI is the fragment of the token interface the gateway needs for the
// pre-payment balance and allowance checks and the approval step.
const ERC20ABI = `[
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"approve","type":"function","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`
