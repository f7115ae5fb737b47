package catalog

var defaultScopes = []Scope{
	{Name: "esi-assets.read_assets.v1", Description: "Character assets", Character: true},
	{Name: "esi-assets.read_corporation_assets.v1", Description: "Corporation assets", Corporation: true},
	{Name: "esi-wallet.read_character_wallet.v1", Description: "Character wallet balance, journal and transactions", Character: true},
	{Name: "esi-wallet.read_corporation_wallets.v1", Description: "Corporation wallet divisions, journal and transactions", Corporation: true},
	{Name: "esi-characters.read_contacts.v1", Description: "Character contacts", Character: true},
	{Name: "esi-corporations.read_contacts.v1", Description: "Corporation contacts", Corporation: true},
	{Name: "esi-contracts.read_character_contracts.v1", Description: "Character contracts", Character: true},
	{Name: "esi-contracts.read_corporation_contracts.v1", Description: "Corporation contracts", Corporation: true},
	{Name: "esi-industry.read_character_jobs.v1", Description: "Character industry jobs", Character: true},
	{Name: "esi-industry.read_corporation_jobs.v1", Description: "Corporation industry jobs", Corporation: true},
	{Name: "esi-killmails.read_killmails.v1", Description: "Character kill mails", Character: true},
	{Name: "esi-killmails.read_corporation_killmails.v1", Description: "Corporation kill mails", Corporation: true},
	{Name: "esi-markets.read_character_orders.v1", Description: "Character market orders", Character: true},
	{Name: "esi-markets.read_corporation_orders.v1", Description: "Corporation market orders", Corporation: true},
	{Name: "esi-skills.read_skills.v1", Description: "Character skills", Character: true},
	{Name: "esi-skills.read_skillqueue.v1", Description: "Character skill queue", Character: true},
	{Name: "esi-mail.read_mail.v1", Description: "Character mail", Character: true},
	{Name: "esi-calendar.read_calendar_events.v1", Description: "Character calendar events", Character: true},
	{Name: "esi-location.read_location.v1", Description: "Character location", Character: true},
	{Name: "esi-clones.read_clones.v1", Description: "Character clones", Character: true},
	{Name: "esi-corporations.read_corporation_membership.v1", Description: "Corporation membership", Corporation: true},
	{Name: "esi-corporations.read_divisions.v1", Description: "Corporation divisions", Corporation: true},
	{Name: "esi-corporations.read_starbases.v1", Description: "Corporation starbases", Corporation: true},
	{Name: "esi-corporations.read_structures.v1", Description: "Corporation structures", Corporation: true},
	{Name: "esi-planets.manage_planets.v1", Description: "Character planetary interaction", Character: true},
	{Name: "esi-characters.read_standings.v1", Description: "Character standings", Character: true},
	{Name: "esi-corporations.read_standings.v1", Description: "Corporation standings", Corporation: true},
	{Name: "esi-characters.read_medals.v1", Description: "Character medals", Character: true},
	{Name: "esi-corporations.read_medals.v1", Description: "Corporation medals", Corporation: true},
	{Name: "esi-fittings.read_fittings.v1", Description: "Character fittings", Character: true},
}

var defaultEndpoints = []Endpoint{
	{Name: "CHAR_ASSETS", Scope: "esi-assets.read_assets.v1", Description: "Character assets", Character: true},
	{Name: "CHAR_WALLET_BALANCE", Scope: "esi-wallet.read_character_wallet.v1", Description: "Character wallet balance", Character: true},
	{Name: "CHAR_WALLET_JOURNAL", Scope: "esi-wallet.read_character_wallet.v1", Description: "Character wallet journal", Character: true},
	{Name: "CHAR_WALLET_TRANSACTIONS", Scope: "esi-wallet.read_character_wallet.v1", Description: "Character wallet transactions", Character: true},
	{Name: "CHAR_CONTACTS", Scope: "esi-characters.read_contacts.v1", Description: "Character contacts", Character: true},
	{Name: "CHAR_CONTRACTS", Scope: "esi-contracts.read_character_contracts.v1", Description: "Character contracts", Character: true},
	{Name: "CHAR_INDUSTRY", Scope: "esi-industry.read_character_jobs.v1", Description: "Character industry jobs", Character: true},
	{Name: "CHAR_KILL_MAIL", Scope: "esi-killmails.read_killmails.v1", Description: "Character kill mails", Character: true},
	{Name: "CHAR_MARKET", Scope: "esi-markets.read_character_orders.v1", Description: "Character market orders", Character: true},
	{Name: "CHAR_SKILLS", Scope: "esi-skills.read_skills.v1", Description: "Character skills", Character: true},
	{Name: "CHAR_SKILL_QUEUE", Scope: "esi-skills.read_skillqueue.v1", Description: "Character skill queue", Character: true},
	{Name: "CHAR_MAIL", Scope: "esi-mail.read_mail.v1", Description: "Character mail", Character: true},
	{Name: "CHAR_CALENDAR", Scope: "esi-calendar.read_calendar_events.v1", Description: "Character calendar", Character: true},
	{Name: "CHAR_LOCATION", Scope: "esi-location.read_location.v1", Description: "Character location", Character: true},
	{Name: "CHAR_CLONES", Scope: "esi-clones.read_clones.v1", Description: "Character clones", Character: true},
	{Name: "CHAR_PLANETS", Scope: "esi-planets.manage_planets.v1", Description: "Character planetary interaction", Character: true},
	{Name: "CHAR_STANDINGS", Scope: "esi-characters.read_standings.v1", Description: "Character standings", Character: true},
	{Name: "CHAR_MEDALS", Scope: "esi-characters.read_medals.v1", Description: "Character medals", Character: true},
	{Name: "CHAR_FITTINGS", Scope: "esi-fittings.read_fittings.v1", Description: "Character fittings", Character: true},
	{Name: "CORP_ASSETS", Scope: "esi-assets.read_corporation_assets.v1", Description: "Corporation assets"},
	{Name: "CORP_WALLET_BALANCE", Scope: "esi-wallet.read_corporation_wallets.v1", Description: "Corporation wallet balance"},
	{Name: "CORP_WALLET_JOURNAL", Scope: "esi-wallet.read_corporation_wallets.v1", Description: "Corporation wallet journal"},
	{Name: "CORP_CONTACTS", Scope: "esi-corporations.read_contacts.v1", Description: "Corporation contacts"},
	{Name: "CORP_CONTRACTS", Scope: "esi-contracts.read_corporation_contracts.v1", Description: "Corporation contracts"},
	{Name: "CORP_INDUSTRY", Scope: "esi-industry.read_corporation_jobs.v1", Description: "Corporation industry jobs"},
	{Name: "CORP_KILL_MAIL", Scope: "esi-killmails.read_corporation_killmails.v1", Description: "Corporation kill mails"},
	{Name: "CORP_MARKET", Scope: "esi-markets.read_corporation_orders.v1", Description: "Corporation market orders"},
	{Name: "CORP_MEMBERSHIP", Scope: "esi-corporations.read_corporation_membership.v1", Description: "Corporation membership"},
	{Name: "CORP_DIVISIONS", Scope: "esi-corporations.read_divisions.v1", Description: "Corporation divisions"},
	{Name: "CORP_STARBASES", Scope: "esi-corporations.read_starbases.v1", Description: "Corporation starbases"},
	{Name: "CORP_STRUCTURES", Scope: "esi-corporations.read_structures.v1", Description: "Corporation structures"},
	{Name: "CORP_STANDINGS", Scope: "esi-corporations.read_standings.v1", Description: "Corporation standings"},
	{Name: "CORP_MEDALS", Scope: "esi-corporations.read_medals.v1", Description: "Corporation medals"},
}

var defaultCatalog = MustNew(defaultScopes, defaultEndpoints)

// Default returns the shared built-in catalog. It is read-only.
func Default() *Catalog {
	return defaultCatalog
}
