package config

const contextTemplateYAML = `# Context catalog template for mgmtbridge.
# Fill the fields you need and remove examples/comments as desired.
contexts:
  - name: my-context
    management:
      # Mutually exclusive: choose exactly one endpoint.
      http:
        base-url: http://localhost:9990/management
        # default-headers:
        #   X-Client: mgmtbridge
        # timeout: 30s

        # Required auth. Mutually exclusive: choose exactly one method.
        # Secret values may refer to the credential store with {{secret "key"}}.
        auth:
          basic-auth:
            username: admin
            password: '{{secret "mgmt/admin"}}'
        #   bearer-token:
        #     token: change-me
        #   custom-header:
        #     header: X-Token
        #     token: change-me
        #   oauth2:
        #     token-url: https://sso.example.com/token
        #     grant-type: client_credentials
        #     client-id: mgmtbridge
        #     client-secret: '{{secret "mgmt/oauth-client"}}'

        # tls:
        #   ca-cert-file: /path/to/ca.pem
        #   client-cert-file: /path/to/client.pem
        #   client-key-file: /path/to/client-key.pem
        #   insecure-skip-verify: false

        # rate-limit:
        #   requests-per-second: 10
        #   burst: 5

      # memory:
      #   # Optional YAML seed document with resources to preload.
      #   seed-file: /path/to/seed.yaml

      # Domain profile prefixing subsystem addresses; empty for a standalone server.
      # profile: full
      # Messaging server entity addresses resolve under.
      server: default
      # Semver constraint the management API version must satisfy.
      # min-version: ">= 1.0"
      # Check the parent resource remotely before a composite create.
      # verify-parent: false

    # Encrypted store for {{secret "key"}} values, filled with
    # "mgmtbridge credential set". Set exactly one key source.
    credentials:
      path: ~/.mgmtbridge/credentials.enc
      passphrase-file: ~/.mgmtbridge/passphrase
      # key: <32 bytes as hex or base64>
      # kdf:
      #   time: 1
      #   memory: 65536
      #   threads: 4

    # telemetry:
    #   otlp-endpoint: localhost:4317
    #   insecure: true
    #   service-name: mgmtbridge

current-ctx: my-context
`
