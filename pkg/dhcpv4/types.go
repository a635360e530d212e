package dhcpv4

// OptionFlag is a bit in the type-flags bitset carried by each option table
// entry. Flags combine: an IPv4 address list is ADDRIPV4|ARRAY, a
// parameter-request-list is ARRAY|REQUEST, and so on.
type OptionFlag uint16

const (
	FlagUint8 OptionFlag = 1 << iota
	FlagUint16
	FlagUint32
	FlagSint16
	FlagAddrIPv4
	FlagString
	FlagArray
	FlagRequest // client may ask for this option in the parameter-request-list
	FlagRFC3361 // SIP servers (option 120)
	FlagRFC3397 // domain search (option 119)
	FlagRFC3442 // classless static routes (options 121/249)
	FlagRFC5969 // 6rd (option 212)
)

// Has reports whether all bits of want are set in f.
func (f OptionFlag) Has(want OptionFlag) bool { return f&want == want }

// Any reports whether any bit of want is set in f.
func (f OptionFlag) Any(want OptionFlag) bool { return f&want != 0 }

// OptionDef is one row of the option table: {code, type-flags, name}.
type OptionDef struct {
	Code  OptionCode
	Flags OptionFlag
	Name  string
}

// optionTable is the full option table referenced throughout §4.1. Entries
// tagged FlagRequest are the ones a client may list in its
// parameter-request-list (option 55); every entry's Name is the variable
// name the environment exporter uses for it.
var optionTable = map[OptionCode]OptionDef{
	OptionSubnetMask:             {OptionSubnetMask, FlagAddrIPv4 | FlagRequest, "subnet_mask"},
	OptionTimeOffset:             {OptionTimeOffset, FlagUint32, "time_offset"},
	OptionRouter:                 {OptionRouter, FlagAddrIPv4 | FlagArray | FlagRequest, "routers"},
	OptionTimeServer:             {OptionTimeServer, FlagAddrIPv4 | FlagArray, "time_servers"},
	OptionNameServer:             {OptionNameServer, FlagAddrIPv4 | FlagArray, "ien116_name_servers"},
	OptionDomainNameServer:       {OptionDomainNameServer, FlagAddrIPv4 | FlagArray | FlagRequest, "domain_name_servers"},
	OptionLogServer:              {OptionLogServer, FlagAddrIPv4 | FlagArray, "log_servers"},
	OptionCookieServer:           {OptionCookieServer, FlagAddrIPv4 | FlagArray, "cookie_servers"},
	OptionLPRServer:              {OptionLPRServer, FlagAddrIPv4 | FlagArray, "lpr_servers"},
	OptionImpressServer:          {OptionImpressServer, FlagAddrIPv4 | FlagArray, "impress_servers"},
	OptionResourceLocationServer: {OptionResourceLocationServer, FlagAddrIPv4 | FlagArray, "rlp_servers"},
	OptionHostname:               {OptionHostname, FlagString | FlagRequest, "host_name"},
	OptionBootFileSize:           {OptionBootFileSize, FlagUint16, "boot_size"},
	OptionMeritDumpFile:          {OptionMeritDumpFile, FlagString, "dump_file"},
	OptionDomainName:             {OptionDomainName, FlagString | FlagRequest, "domain_name"},
	OptionSwapServer:             {OptionSwapServer, FlagAddrIPv4, "swap_server"},
	OptionRootPath:               {OptionRootPath, FlagString | FlagRequest, "root_path"},
	OptionExtensionsPath:         {OptionExtensionsPath, FlagString, "extensions_path"},
	OptionIPForwarding:           {OptionIPForwarding, FlagUint8, "ip_forwarding"},
	OptionNonLocalSourceRouting:  {OptionNonLocalSourceRouting, FlagUint8, "non_local_source_routing"},
	OptionPolicyFilter:           {OptionPolicyFilter, FlagAddrIPv4 | FlagArray, "policy_filter"},
	OptionMaxDatagramReassembly:  {OptionMaxDatagramReassembly, FlagUint16, "max_dgram_reassembly"},
	OptionDefaultIPTTL:           {OptionDefaultIPTTL, FlagUint8, "default_ip_ttl"},
	OptionPathMTUAgingTimeout:    {OptionPathMTUAgingTimeout, FlagUint32, "path_mtu_aging_timeout"},
	OptionPathMTUPlateauTable:    {OptionPathMTUPlateauTable, FlagUint16 | FlagArray, "path_mtu_plateau_table"},
	OptionInterfaceMTU:           {OptionInterfaceMTU, FlagUint16 | FlagRequest, "interface_mtu"},
	OptionAllSubnetsLocal:        {OptionAllSubnetsLocal, FlagUint8, "all_subnets_local"},
	OptionBroadcastAddress:       {OptionBroadcastAddress, FlagAddrIPv4 | FlagRequest, "broadcast_address"},
	OptionPerformMaskDiscovery:   {OptionPerformMaskDiscovery, FlagUint8, "perform_mask_discovery"},
	OptionMaskSupplier:           {OptionMaskSupplier, FlagUint8, "mask_supplier"},
	OptionPerformRouterDiscovery: {OptionPerformRouterDiscovery, FlagUint8 | FlagRequest, "router_discovery"},
	OptionRouterSolicitAddr:      {OptionRouterSolicitAddr, FlagAddrIPv4, "router_solicitation_address"},
	OptionStaticRoute:            {OptionStaticRoute, FlagAddrIPv4 | FlagArray | FlagRequest, "static_routes"},
	OptionTrailerEncapsulation:   {OptionTrailerEncapsulation, FlagUint8, "trailer_encapsulation"},
	OptionARPCacheTimeout:        {OptionARPCacheTimeout, FlagUint32, "arp_cache_timeout"},
	OptionEthernetEncapsulation:  {OptionEthernetEncapsulation, FlagUint8, "ieee802_3_encapsulation"},
	OptionTCPDefaultTTL:          {OptionTCPDefaultTTL, FlagUint8, "default_tcp_ttl"},
	OptionTCPKeepaliveInterval:   {OptionTCPKeepaliveInterval, FlagUint32, "tcp_keepalive_interval"},
	OptionTCPKeepaliveGarbage:    {OptionTCPKeepaliveGarbage, FlagUint8, "tcp_keepalive_garbage"},
	OptionNISDomain:              {OptionNISDomain, FlagString | FlagRequest, "nis_domain"},
	OptionNISServers:             {OptionNISServers, FlagAddrIPv4 | FlagArray | FlagRequest, "nis_servers"},
	OptionNTPServers:             {OptionNTPServers, FlagAddrIPv4 | FlagArray | FlagRequest, "ntp_servers"},
	OptionVendorSpecific:         {OptionVendorSpecific, 0, "vendor_encapsulated_options"},
	OptionNetBIOSNameServer:      {OptionNetBIOSNameServer, FlagAddrIPv4 | FlagArray | FlagRequest, "netbios_name_servers"},
	OptionNetBIOSDatagramDist:    {OptionNetBIOSDatagramDist, FlagAddrIPv4 | FlagArray, "netbios_dd_server"},
	OptionNetBIOSNodeType:        {OptionNetBIOSNodeType, FlagUint8 | FlagRequest, "netbios_node_type"},
	OptionNetBIOSScope:           {OptionNetBIOSScope, FlagString | FlagRequest, "netbios_scope"},
	OptionXWindowFontServer:      {OptionXWindowFontServer, FlagAddrIPv4 | FlagArray, "font_servers"},
	OptionXWindowDisplayManager:  {OptionXWindowDisplayManager, FlagAddrIPv4 | FlagArray, "x_display_manager"},
	OptionRequestedIP:            {OptionRequestedIP, FlagAddrIPv4, "requested_address"},
	OptionIPLeaseTime:            {OptionIPLeaseTime, FlagUint32, "dhcp_lease_time"},
	OptionOverload:               {OptionOverload, FlagUint8, "dhcp_option_overload"},
	OptionDHCPMessageType:        {OptionDHCPMessageType, FlagUint8, "dhcp_message_type"},
	OptionServerIdentifier:       {OptionServerIdentifier, FlagAddrIPv4, "dhcp_server_identifier"},
	OptionParameterRequestList:   {OptionParameterRequestList, FlagUint8 | FlagArray, "dhcp_parameter_request_list"},
	OptionMessage:                {OptionMessage, FlagString, "dhcp_message"},
	OptionMaxDHCPMessageSize:     {OptionMaxDHCPMessageSize, FlagUint16, "dhcp_max_message_size"},
	OptionRenewalTime:            {OptionRenewalTime, FlagUint32, "dhcp_renewal_time"},
	OptionRebindingTime:          {OptionRebindingTime, FlagUint32, "dhcp_rebinding_time"},
	OptionVendorClassID:          {OptionVendorClassID, FlagString, "vendor_class_identifier"},
	OptionClientIdentifier:       {OptionClientIdentifier, 0, "dhcp_client_identifier"},
	OptionNISPlusDomain:          {OptionNISPlusDomain, FlagString | FlagRequest, "nisplus_domain"},
	OptionNISPlusServers:         {OptionNISPlusServers, FlagAddrIPv4 | FlagArray | FlagRequest, "nisplus_servers"},
	OptionTFTPServerName:         {OptionTFTPServerName, FlagString | FlagRequest, "tftp_server_name"},
	OptionBootfileName:           {OptionBootfileName, FlagString | FlagRequest, "bootfile_name"},
	OptionMobileIPHomeAgent:      {OptionMobileIPHomeAgent, FlagAddrIPv4 | FlagArray, "mobile_ip_home_agent"},
	OptionSMTPServer:             {OptionSMTPServer, FlagAddrIPv4 | FlagArray, "smtp_server"},
	OptionPOP3Server:             {OptionPOP3Server, FlagAddrIPv4 | FlagArray, "pop_server"},
	OptionNNTPServer:             {OptionNNTPServer, FlagAddrIPv4 | FlagArray, "nntp_server"},
	OptionWWWServer:              {OptionWWWServer, FlagAddrIPv4 | FlagArray, "www_server"},
	OptionFingerServer:           {OptionFingerServer, FlagAddrIPv4 | FlagArray, "finger_server"},
	OptionIRCServer:              {OptionIRCServer, FlagAddrIPv4 | FlagArray, "irc_server"},
	OptionStreetTalkServer:       {OptionStreetTalkServer, FlagAddrIPv4 | FlagArray, "streettalk_server"},
	OptionSTDAServer:             {OptionSTDAServer, FlagAddrIPv4 | FlagArray, "streettalk_da_server"},
	OptionUserClass:              {OptionUserClass, FlagString, "user_class"},
	OptionSIPServers:             {OptionSIPServers, FlagRFC3361 | FlagRequest, "sip_servers"},
	OptionClientFQDN:             {OptionClientFQDN, 0, "fqdn_fqdn"},
	OptionRelayAgentInfo:         {OptionRelayAgentInfo, 0, "dhcp_agent_options"},
	OptionDomainSearch:           {OptionDomainSearch, FlagRFC3397 | FlagRequest, "domain_search"},
	OptionSubnetSelection:        {OptionSubnetSelection, FlagAddrIPv4, "subnet_selection"},
	OptionClasslessStaticRoute:   {OptionClasslessStaticRoute, FlagRFC3442 | FlagRequest, "classless_static_routes"},
	OptionVIVendorClass:          {OptionVIVendorClass, 0, "vendor_class_info"},
	OptionVIVendorSpecific:       {OptionVIVendorSpecific, 0, "vendor_specific_info"},
	OptionClasslessStaticRouteMS: {OptionClasslessStaticRouteMS, FlagRFC3442 | FlagRequest, "ms_classless_static_routes"},
	OptionSixRD:                  {OptionSixRD, FlagRFC5969 | FlagRequest, "sixrd"},
	OptionTFTPServerAddress:      {OptionTFTPServerAddress, FlagAddrIPv4 | FlagArray, "tftp_server_address"},
}

// LookupOptionDef returns the table entry for code, or nil if code is
// unrecognized (it is still decodable — just typeless).
func LookupOptionDef(code OptionCode) *OptionDef {
	def, ok := optionTable[code]
	if !ok {
		return nil
	}
	return &def
}

// RequestableOptions returns every option code tagged FlagRequest, i.e. the
// full set the message builder's parameter-request-list is built from.
func RequestableOptions() []OptionCode {
	codes := make([]OptionCode, 0, len(optionTable))
	for code, def := range optionTable {
		if def.Flags.Has(FlagRequest) {
			codes = append(codes, code)
		}
	}
	return codes
}
